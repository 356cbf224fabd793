package service

import (
	"errors"
	"fmt"
)

// Sentinel errors for the inventory and listing operations. Wrapped values
// carry row context; callers match with errors.Is.
var (
	ErrPermissionDenied        = errors.New("permission denied")
	ErrNotFound                = errors.New("not found")
	ErrInvalidTransition       = errors.New("invalid status transition")
	ErrInsufficientInventory   = errors.New("insufficient inventory")
	ErrInsufficientReservation = errors.New("insufficient reservation")
	ErrSyncDisabled            = errors.New("square sync is disabled")
)

// ValidationError reports a missing or malformed field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
