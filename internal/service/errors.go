package service

import (
	"errors"
	"fmt"

	"usermanagement/internal/validation"
)

var (
	// ErrAuthentication covers unknown accounts, wrong passwords and
	// non-admins at the admin entry point alike.
	ErrAuthentication = errors.New("email and password is incorrect")
	ErrConflict       = errors.New("email already exists")
	ErrNotFound       = errors.New("user not found")
)

// ValidationError carries field-keyed messages for a re-rendered form.
type ValidationError struct {
	Fields validation.Errors
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(e.Fields))
}

// InfrastructureError wraps a store, hasher or provisioning failure.
type InfrastructureError struct {
	Op  string
	Err error
}

func (e *InfrastructureError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *InfrastructureError) Unwrap() error {
	return e.Err
}

func infra(op string, err error) error {
	return &InfrastructureError{Op: op, Err: err}
}

func IsValidation(err error) (*ValidationError, bool) {
	var v *ValidationError
	ok := errors.As(err, &v)
	return v, ok
}

func IsInfrastructure(err error) bool {
	var e *InfrastructureError
	return errors.As(err, &e)
}
