package models

import (
	"errors"
	"fmt"
	"strings"
)

// MissingInputError reports a table or parameter that was never supplied.
type MissingInputError struct {
	Field  string
	Reason string
}

func (e *MissingInputError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("missing input %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("missing input %s", e.Field)
}

// SchemaError reports required columns absent from a table.
type SchemaError struct {
	Table   string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s table is missing required columns: %s", e.Table, strings.Join(e.Missing, ", "))
}

// DetectError reports a table whose headers fit no task.
type DetectError struct {
	Table   string
	Columns []string
}

func (e *DetectError) Error() string {
	return fmt.Sprintf("could not detect task from the %s table headers (%s); please specify the task", e.Table, strings.Join(e.Columns, ", "))
}

// ProcessingError wraps any failure while reading, transforming or writing.
type ProcessingError struct {
	Op  string
	Err error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

// RequireColumns returns a SchemaError naming every column of names that t
// does not have, or nil.
func RequireColumns(role string, t *Table, names ...string) error {
	if missing := t.MissingColumns(names...); len(missing) > 0 {
		return &SchemaError{Table: role, Missing: missing}
	}
	return nil
}

// IsInputError reports whether err is a problem with what the operator
// supplied (missing input, missing columns, undetectable task) rather than
// a failure while processing.
func IsInputError(err error) bool {
	var missing *MissingInputError
	var schema *SchemaError
	var detect *DetectError
	return errors.As(err, &missing) || errors.As(err, &schema) || errors.As(err, &detect)
}
