package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInspectionFrozen is returned by every mutator of an Inspection once it has
// been assigned a persistent identifier.
var ErrInspectionFrozen = errors.New("inspection is immutable once persisted")

// InvalidArgumentError reports a value rejected by a strict setter.
type InvalidArgumentError struct {
	Field    string
	Value    interface{}
	Expected []string
	Reason   string
}

// Error implements the error interface.
func (e *InvalidArgumentError) Error() string {
	switch {
	case len(e.Expected) > 0:
		return fmt.Sprintf("invalid %s %q: expected one of %s", e.Field, fmt.Sprint(e.Value), strings.Join(e.Expected, ", "))
	case e.Reason != "":
		return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
	default:
		return fmt.Sprintf("invalid %s %v", e.Field, e.Value)
	}
}

func invalidEnum(field string, value string, allowed []string) *InvalidArgumentError {
	return &InvalidArgumentError{Field: field, Value: value, Expected: allowed}
}

func invalidValue(field string, value interface{}, reason string) *InvalidArgumentError {
	return &InvalidArgumentError{Field: field, Value: value, Reason: reason}
}

// IsInvalidArgument reports whether err carries an InvalidArgumentError.
func IsInvalidArgument(err error) bool {
	var target *InvalidArgumentError
	return errors.As(err, &target)
}
