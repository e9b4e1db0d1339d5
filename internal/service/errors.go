package service

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrValidation     = errors.New("validation failed")
	ErrNotQuarantined = errors.New("content does not require quarantine review")
	// ErrUnavailable is returned when an optional backend (the report archive) is not configured.
	ErrUnavailable = errors.New("service unavailable")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func notFound(what string) error {
	return fmt.Errorf("%s %w", what, ErrNotFound)
}
