package history

import "errors"

// ErrNotFound indicates the entry does not exist for this user. A non-owned
// existing id is reported the same way so cross-tenant probing is impossible.
var ErrNotFound = errors.New("history entry not found")

// ValidationError rejects malformed input before it reaches the store.
type ValidationError struct {
	Reason string
}

func NewValidationError(reason string) *ValidationError {
	return &ValidationError{Reason: reason}
}

func (e *ValidationError) Error() string { return "validation: " + e.Reason }

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
