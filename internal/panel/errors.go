package panel

import "errors"

// Code classifies where in the create sequence a panel interaction
// failed. Handlers map codes to HTTP statuses; callers must not parse
// Message.
type Code string

const (
	CodeLogin      Code = "LOGIN_ERROR"
	CodeCSRF       Code = "CSRF_ERROR"
	CodeCreate     Code = "CREATE_ERROR"
	CodeHTTP       Code = "HTTP_ERROR"
	CodeConnection Code = "CONNECTION_ERROR"
)

// Error is the only error type the panel package returns across its
// boundary. Details carries operator-facing context such as a
// truncated response body.
type Error struct {
	Code    Code
	Message string
	Details string

	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return string(e.Code) + ": " + e.Message + ": " + e.cause.Error()
	}
	return string(e.Code) + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

func (e *Error) withDetails(details string) *Error {
	e.Details = details
	return e
}

func newError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func wrapError(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// AsError coerces any error into a *Error. Foreign errors, transport
// failures mostly, come back as CONNECTION_ERROR with the original
// text preserved in Details.
func AsError(err error) *Error {
	var perr *Error
	if errors.As(err, &perr) {
		return perr
	}
	return &Error{
		Code:    CodeConnection,
		Message: "panel communication failed",
		Details: err.Error(),
		cause:   err,
	}
}
