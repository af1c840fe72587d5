package invocation

import "errors"

var (
	// ErrMissingArgument is returned when a required value is empty.
	ErrMissingArgument = errors.New("missing argument")
	// ErrInvalidArgument is returned when a value is present but unusable.
	ErrInvalidArgument = errors.New("invalid argument")
)
