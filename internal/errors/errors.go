package errors

// Domain is the error domain for scoring engine errors.
const Domain = "github.com/dompetkecil/scoring"

// Error is the domain error type with structured metadata.
type Error struct {
	Code     Code              // Machine-readable taxonomy code
	Rule     string            // Specific rule identifier (e.g. SEQUENCE_GAP)
	Message  string            // Human-readable message
	Fields   []string          // Dot-path details for the offending fields
	Metadata map[string]string // Additional context
	Cause    error             // Wrapped underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewRule creates a domain error carrying a specific rule identifier.
func NewRule(code Code, rule, message string) *Error {
	return &Error{Code: code, Rule: rule, Message: message}
}

// WithFields creates a validation error annotated with field dot-paths.
func WithFields(code Code, message string, fields ...string) *Error {
	return &Error{Code: code, Message: message, Fields: fields}
}

// Wrap creates a domain error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}
