package errors

import (
	"errors"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// HandleError converts domain errors to a gRPC status for client responses.
func HandleError(err error) error {
	if err == nil {
		return nil
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.ToGRPCStatus()
	}

	return status.Error(codes.Internal, "an unexpected error occurred")
}

// GetCode extracts the error code from any error.
// Returns CodeUnknown if the error is not a domain error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// IsCode checks if the error has the specified code.
func IsCode(err error, code Code) bool {
	return GetCode(err) == code
}

// GetFields extracts field dot-paths from an error if present.
func GetFields(err error) []string {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}

// ToGRPCStatus converts the error to a gRPC status with errdetails.
// ErrorInfo carries the taxonomy code and rule identifier; BadRequest
// carries one field violation per offending dot-path.
func (e *Error) ToGRPCStatus() error {
	grpcCode := e.Code.GRPCCode()
	st := status.New(grpcCode, e.Message)

	metadata := map[string]string{}
	for k, v := range e.Metadata {
		metadata[k] = v
	}
	if e.Rule != "" {
		metadata["rule"] = e.Rule
	}

	info := &errdetails.ErrorInfo{
		Reason:   string(e.Code),
		Domain:   Domain,
		Metadata: metadata,
	}

	if len(e.Fields) == 0 {
		withInfo, err := st.WithDetails(info)
		if err != nil {
			return st.Err()
		}
		return withInfo.Err()
	}

	violations := make([]*errdetails.BadRequest_FieldViolation, 0, len(e.Fields))
	for _, field := range e.Fields {
		violations = append(violations, &errdetails.BadRequest_FieldViolation{
			Field:       field,
			Description: e.Message,
		})
	}
	withInfo, err := st.WithDetails(info, &errdetails.BadRequest{FieldViolations: violations})
	if err != nil {
		return st.Err()
	}
	return withInfo.Err()
}
