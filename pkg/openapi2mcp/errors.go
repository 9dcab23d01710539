package openapi2mcp

import (
	"errors"
	"fmt"
	"strings"
)

// UnsupportedOperationError is returned for a tool name that is not in the table.
type UnsupportedOperationError struct {
	Name string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("Operation '%s' is not supported.", e.Name)
}

// MissingPathParameterError is returned when route placeholders have no value.
type MissingPathParameterError struct {
	Operation string
	Route     string
	Names     []string
}

func (e *MissingPathParameterError) Error() string {
	return fmt.Sprintf("operation '%s' requires path parameter(s) %s for route %s",
		e.Operation, strings.Join(e.Names, ", "), e.Route)
}

// ArgumentValidationError lists schema violations found in tool arguments.
type ArgumentValidationError struct {
	Operation string
	Problems  []string
}

func (e *ArgumentValidationError) Error() string {
	return fmt.Sprintf("invalid arguments for '%s': %s", e.Operation, strings.Join(e.Problems, "; "))
}

// IsUsageError reports whether err is a caller mistake that is answered with text rather than
// failing the invocation.
func IsUsageError(err error) bool {
	var (
		unsupported *UnsupportedOperationError
		missing     *MissingPathParameterError
		invalid     *ArgumentValidationError
	)
	return errors.As(err, &unsupported) || errors.As(err, &missing) || errors.As(err, &invalid)
}
