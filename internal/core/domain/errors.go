package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated   = errors.New("not authenticated")
	ErrInvalidToken      = errors.New("invalid token")
	ErrMissingSigningKey = errors.New("token signing key is not configured")

	ErrForbidden      = errors.New("access forbidden")
	ErrStatusOnly     = fmt.Errorf("%w: you may only change status", ErrForbidden)
	ErrSelfRoleChange = errors.New("you cannot change your own role")

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrMissingCredentials = errors.New("email and password are required")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user with this email already exists")

	ErrPersonnelNotFound   = errors.New("personnel record not found")
	ErrDuplicateMilitaryID = errors.New("military id already exists")

	ErrInvalidID    = errors.New("invalid id")
	ErrInvalidInput = errors.New("invalid input")
)

// InputError carries a client-facing validation message. It matches
// ErrInvalidInput under errors.Is.
type InputError struct {
	Message string
}

// NewInputError returns an *InputError formatted like fmt.Sprintf.
func NewInputError(format string, args ...any) *InputError {
	return &InputError{Message: fmt.Sprintf(format, args...)}
}

func (e *InputError) Error() string {
	return e.Message
}

func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput
}
