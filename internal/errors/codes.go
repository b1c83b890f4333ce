// Package errors provides structured domain errors for the scoring engine.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unexpected internal error.
	CodeUnknown Code = "UNKNOWN"
	// CodeValidation represents malformed or missing structural input.
	CodeValidation Code = "VALIDATION_ERROR"
	// CodeDomainRule represents well-formed input that breaches a stateful invariant.
	CodeDomainRule Code = "DOMAIN_RULE_VIOLATION"
	// CodeDuplicate represents an idempotency conflict (event id or sequence reuse).
	CodeDuplicate Code = "DUPLICATE"
	// CodeNotFound represents a referenced entity that does not exist.
	CodeNotFound Code = "NOT_FOUND"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	case CodeValidation:
		return codes.InvalidArgument
	case CodeDomainRule:
		return codes.FailedPrecondition
	case CodeDuplicate:
		return codes.AlreadyExists
	case CodeNotFound:
		return codes.NotFound
	default:
		return codes.Internal
	}
}
