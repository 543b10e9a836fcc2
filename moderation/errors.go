package moderation

import (
	"errors"
	"fmt"
)

// ValidationError is a recoverable, caller-facing rejection: duplicate
// report, over the daily limit, abusive reporter, missing permission. The
// Reason is human readable and safe to surface to the end user.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Validationf builds a ValidationError from a printf-style reason.
func Validationf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
