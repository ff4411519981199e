package mutate

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidLength = errors.New("invalid length")
	ErrDuplicateName = errors.New("duplicate name")
	ErrNotFound      = errors.New("not found")
)

// ValidationError carries the user-facing message for a rejected name.
// It unwraps to ErrInvalidLength or ErrDuplicateName.
type ValidationError struct {
	Err     error
	Message string
}

func (e ValidationError) Error() string { return e.Message }

func (e ValidationError) Unwrap() error { return e.Err }

type NotFoundError struct {
	Kind  string
	Index int
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %d", e.Kind, e.Index)
}

func (e NotFoundError) Is(target error) bool { return target == ErrNotFound }
