// Package flags holds the argument binding helpers shared by the sf commands:
// usage errors, KEY=VALUE and JSON flag values, enums and declarative checks.
package flags

import (
	"errors"
	"fmt"
	"strings"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"
)

// UsageError means the command line itself is wrong. It maps to exit code 2.
type UsageError struct {
	Msg string
	Err error
}

func (e *UsageError) Error() string {
	return e.Msg
}

func (e *UsageError) Unwrap() error {
	return e.Err
}

// Usagef builds a UsageError.
func Usagef(format string, args ...any) *UsageError {
	return &UsageError{Msg: fmt.Sprintf(format, args...)}
}

// IsUsageError reports whether err carries a UsageError.
func IsUsageError(err error) bool {
	var u *UsageError
	return errors.As(err, &u)
}

// Check ties a validation to the option it reports on.
type Check struct {
	Option string
	Check  func() error
}

// Validate runs every check and aggregates the failures into one
// UsageError. Returns nil when all pass.
func Validate(checks ...Check) error {
	var errs []error
	for _, c := range checks {
		if err := c.Check(); err != nil {
			if c.Option != "" && !strings.Contains(err.Error(), c.Option) {
				err = fmt.Errorf("%s: %w", c.Option, err)
			}
			errs = append(errs, err)
		}
	}
	agg := utilerrors.NewAggregate(errs)
	if agg == nil {
		return nil
	}
	return &UsageError{Msg: agg.Error(), Err: agg}
}

// Required fails when value is empty.
func Required(option, value string) Check {
	return Check{Option: option, Check: func() error {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s is required", option)
		}
		return nil
	}}
}

// ExactlyOne fails unless exactly one of the named options is set.
// set maps option name to whether it was given.
func ExactlyOne(set map[string]bool, options ...string) Check {
	return Check{Check: func() error {
		n := 0
		for _, o := range options {
			if set[o] {
				n++
			}
		}
		if n != 1 {
			return fmt.Errorf("specify exactly one of %s", strings.Join(options, ", "))
		}
		return nil
	}}
}

// Range fails when v is outside [minValue, maxValue].
func Range(option string, v, minValue, maxValue int64) Check {
	return Check{Option: option, Check: func() error {
		if v < minValue || v > maxValue {
			return fmt.Errorf("%s must be between %d and %d, got %d", option, minValue, maxValue, v)
		}
		return nil
	}}
}

// When runs check only if cond holds.
func When(cond bool, check Check) Check {
	return Check{Option: check.Option, Check: func() error {
		if !cond {
			return nil
		}
		return check.Check()
	}}
}
