package treesql

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors for the failure classes of the engine.
var (
	// ErrMissingParameter is returned when a template references a
	// parameter that is absent from the supplied parameter map.
	ErrMissingParameter = errors.New("treesql: missing template parameter")

	// ErrMalformedTemplate is returned when a template contains an
	// unterminated or empty placeholder.
	ErrMalformedTemplate = errors.New("treesql: malformed template")

	// ErrUnsupportedValue is returned when a parameter value has no SQL literal form.
	ErrUnsupportedValue = errors.New("treesql: unsupported parameter value")

	// ErrUnsupportedColumnType is returned when a dialect declares no
	// native type for an abstract column type.
	ErrUnsupportedColumnType = errors.New("treesql: unsupported column type")

	// ErrUnsupportedDialect is returned when no registered strategy supports a dialect.
	ErrUnsupportedDialect = errors.New("treesql: unsupported dialect")

	// ErrUnsupportedOperation is returned when a dialect cannot express a DDL operation.
	ErrUnsupportedOperation = errors.New("treesql: unsupported operation")

	// ErrDanglingForeignKey is returned when a foreign key references a
	// table that is not part of the schema context.
	ErrDanglingForeignKey = errors.New("treesql: dangling foreign key")

	// ErrInvalidSchema indicates a malformed table definition.
	ErrInvalidSchema = errors.New("treesql: invalid schema")

	// ErrInvalidIdentifier is returned when a table or column name cannot
	// be embedded in generated SQL.
	ErrInvalidIdentifier = errors.New("treesql: invalid identifier")
)

// MissingParameterError reports a placeholder without a value.
type MissingParameterError struct {
	Name     string // Placeholder name.
	Template string // Template the placeholder was found in.
}

// Error returns the error string.
func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("treesql: missing value for parameter %q in template %q", e.Name, e.Template)
}

// Is reports whether the target error matches MissingParameterError.
func (e *MissingParameterError) Is(err error) bool {
	return err == ErrMissingParameter
}

// NewMissingParameterError returns a new MissingParameterError.
func NewMissingParameterError(name, template string) *MissingParameterError {
	return &MissingParameterError{Name: name, Template: template}
}

// IsMissingParameter returns true if the error is a MissingParameterError.
func IsMissingParameter(err error) bool {
	if err == nil {
		return false
	}
	var e *MissingParameterError
	return errors.As(err, &e) || errors.Is(err, ErrMissingParameter)
}

// UnsupportedColumnTypeError reports an abstract column type that a dialect does not declare.
type UnsupportedColumnTypeError struct {
	Dialect string
	Type    string
}

// Error returns the error string.
func (e *UnsupportedColumnTypeError) Error() string {
	return fmt.Sprintf("treesql: dialect %s has no mapping for column type %s", e.Dialect, e.Type)
}

// Is reports whether the target error matches UnsupportedColumnTypeError.
func (e *UnsupportedColumnTypeError) Is(err error) bool {
	return err == ErrUnsupportedColumnType
}

// NewUnsupportedColumnTypeError returns a new UnsupportedColumnTypeError.
func NewUnsupportedColumnTypeError(dialect, typ string) *UnsupportedColumnTypeError {
	return &UnsupportedColumnTypeError{Dialect: dialect, Type: typ}
}

// IsUnsupportedColumnType returns true if the error is an UnsupportedColumnTypeError.
func IsUnsupportedColumnType(err error) bool {
	if err == nil {
		return false
	}
	var e *UnsupportedColumnTypeError
	return errors.As(err, &e) || errors.Is(err, ErrUnsupportedColumnType)
}

// UnsupportedDialectError reports a dialect that no registered strategy supports.
type UnsupportedDialectError struct {
	Kind       string   // Registry kind, e.g. "ddl" or "cte".
	Dialect    string   // Requested dialect.
	Registered []string // Dialects the registry can serve.
}

// Error returns the error string.
func (e *UnsupportedDialectError) Error() string {
	var b strings.Builder
	b.WriteString("treesql: ")
	if e.Kind != "" {
		b.WriteString(e.Kind)
		b.WriteString(" ")
	}
	fmt.Fprintf(&b, "dialect %q is not supported", e.Dialect)
	if len(e.Registered) > 0 {
		fmt.Fprintf(&b, " (registered: %s)", strings.Join(e.Registered, ", "))
	} else {
		b.WriteString(" (no strategies registered)")
	}
	return b.String()
}

// Is reports whether the target error matches UnsupportedDialectError.
func (e *UnsupportedDialectError) Is(err error) bool {
	return err == ErrUnsupportedDialect
}

// NewUnsupportedDialectError returns a new UnsupportedDialectError.
func NewUnsupportedDialectError(kind, dialect string, registered []string) *UnsupportedDialectError {
	return &UnsupportedDialectError{Kind: kind, Dialect: dialect, Registered: registered}
}

// IsUnsupportedDialect returns true if the error is an UnsupportedDialectError.
func IsUnsupportedDialect(err error) bool {
	if err == nil {
		return false
	}
	var e *UnsupportedDialectError
	return errors.As(err, &e) || errors.Is(err, ErrUnsupportedDialect)
}

// UnsupportedOperationError reports a DDL operation a dialect cannot express.
type UnsupportedOperationError struct {
	Dialect string
	Op      string
	Reason  string
}

// Error returns the error string.
func (e *UnsupportedOperationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("treesql: %s does not support %s: %s", e.Dialect, e.Op, e.Reason)
	}
	return fmt.Sprintf("treesql: %s does not support %s", e.Dialect, e.Op)
}

// Is reports whether the target error matches UnsupportedOperationError.
func (e *UnsupportedOperationError) Is(err error) bool {
	return err == ErrUnsupportedOperation
}

// NewUnsupportedOperationError returns a new UnsupportedOperationError.
func NewUnsupportedOperationError(dialect, op, reason string) *UnsupportedOperationError {
	return &UnsupportedOperationError{Dialect: dialect, Op: op, Reason: reason}
}

// IsUnsupportedOperation returns true if the error is an UnsupportedOperationError.
func IsUnsupportedOperation(err error) bool {
	if err == nil {
		return false
	}
	var e *UnsupportedOperationError
	return errors.As(err, &e) || errors.Is(err, ErrUnsupportedOperation)
}

// DanglingForeignKeyError reports a foreign key whose target table is unknown.
type DanglingForeignKeyError struct {
	Table    string // Table declaring the foreign key.
	Column   string // Foreign key column.
	RefTable string // Missing referenced table.
}

// Error returns the error string.
func (e *DanglingForeignKeyError) Error() string {
	return fmt.Sprintf("treesql: foreign key %s.%s references unknown table %q", e.Table, e.Column, e.RefTable)
}

// Is reports whether the target error matches DanglingForeignKeyError.
func (e *DanglingForeignKeyError) Is(err error) bool {
	return err == ErrDanglingForeignKey
}

// NewDanglingForeignKeyError returns a new DanglingForeignKeyError.
func NewDanglingForeignKeyError(table, column, refTable string) *DanglingForeignKeyError {
	return &DanglingForeignKeyError{Table: table, Column: column, RefTable: refTable}
}

// IsDanglingForeignKey returns true if the error is a DanglingForeignKeyError.
func IsDanglingForeignKey(err error) bool {
	if err == nil {
		return false
	}
	var e *DanglingForeignKeyError
	return errors.As(err, &e) || errors.Is(err, ErrDanglingForeignKey)
}

// SchemaError represents a table definition error.
type SchemaError struct {
	Table   string
	Column  string // Column name (if applicable)
	Message string
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	var b strings.Builder
	b.WriteString("treesql: schema error")
	if e.Table != "" {
		b.WriteString(" on table ")
		b.WriteString(e.Table)
	}
	if e.Column != "" {
		b.WriteString(" column ")
		b.WriteString(e.Column)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Is reports whether the target matches the sentinel error for SchemaError.
func (e *SchemaError) Is(target error) bool {
	return target == ErrInvalidSchema
}

// NewSchemaError creates a new SchemaError.
func NewSchemaError(table, column, message string) *SchemaError {
	return &SchemaError{Table: table, Column: column, Message: message}
}

// IsSchemaError returns true if the error is a SchemaError.
func IsSchemaError(err error) bool {
	if err == nil {
		return false
	}
	var e *SchemaError
	return errors.As(err, &e) || errors.Is(err, ErrInvalidSchema)
}

// AggregateError represents multiple errors collected during an operation.
type AggregateError struct {
	Errors []error
}

// Error returns the error string.
func (e *AggregateError) Error() string {
	if len(e.Errors) == 0 {
		return "treesql: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString("treesql: multiple errors:")
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "\n  [%d] %v", i+1, err)
	}
	return sb.String()
}

// Unwrap returns the collected errors, so errors.Is and errors.As see every member.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// NewAggregateError returns a new AggregateError if there are errors,
// otherwise returns nil.
func NewAggregateError(errs ...error) error {
	var filtered []error
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &AggregateError{Errors: filtered}
}
