package service

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/BrandonDHaskell/doorbot/internal/doorbot/validate"
)

var (
	// ErrInvalidInput marks client-correctable syntax errors. Match it with
	// errors.Is; the concrete value is a *ValidationError.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound is reported only through Decision outcomes.
	ErrNotFound = errors.New("tag not found")
)

// ValidationError collects every failing field of one request.
type ValidationError struct {
	errs *multierror.Error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidInput, e.errs.Error())
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

func (e *ValidationError) Unwrap() error { return e.errs }

// Messages returns one human-readable line per failing field.
func (e *ValidationError) Messages() []string {
	out := make([]string, 0, len(e.errs.Errors))
	for _, err := range e.errs.Errors {
		out = append(out, err.Error())
	}
	return out
}

// checks accumulates field failures without short-circuiting.
type checks struct {
	errs *multierror.Error
}

func (c *checks) tag(field, v string) {
	if !validate.IsTag(v) {
		c.errs = multierror.Append(c.errs, fmt.Errorf("%s %q must contain only digits", field, v))
	}
}

func (c *checks) name(field, v string) {
	if !validate.IsName(v) {
		c.errs = multierror.Append(c.errs, fmt.Errorf("%s %q may contain only letters, digits, spaces, '-' and '.'", field, v))
	}
}

func (c *checks) err() error {
	if c.errs == nil {
		return nil
	}
	return &ValidationError{errs: c.errs}
}
