package eval

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by the loader when the suite file does not exist.
var ErrNotFound = errors.New("test suite not found")

// SchemaError reports a malformed or mistyped test suite document. It is
// fatal: the run aborts before any case is scheduled.
type SchemaError struct {
	// Field names the offending field, e.g. "test_cases[2].id".
	Field string
	// Reason describes what is wrong with it.
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("invalid test suite: %s: %s", e.Field, e.Reason)
}

// ConfigError reports missing or invalid configuration. It occurs before
// any case runs and is always fatal.
type ConfigError struct {
	Setting string
	Reason  string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Setting, e.Reason)
}
