package domain

import "errors"

// ErrUnauthorized is returned when no identity can be resolved for a request.
// Callers never learn which resolution strategy failed.
var ErrUnauthorized = errors.New("unauthorized")

const (
	MsgFieldsRequired = "URL and title are required"
	MsgInvalidURL     = "url must be an absolute http or https URL"
)

// ValidationError is a client error detected before the store is touched.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return e.Field + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return e.Err }

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
