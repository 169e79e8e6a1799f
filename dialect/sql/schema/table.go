package schema

import (
	"fmt"
	"strings"

	"github.com/syssam/treesql"
)

// ColumnType is a dialect-neutral column type. Each DDL strategy maps it to
// a native type through its own type table.
type ColumnType int

// Column types.
const (
	TypeInvalid ColumnType = iota
	TypeTinyInt
	TypeSmallInt
	TypeInt
	TypeBigInt
	TypeFloat
	TypeDouble
	TypeDecimal
	TypeBoolean
	TypeChar
	TypeVarchar
	TypeText
	TypeDate
	TypeTime
	TypeDateTime
	TypeTimestamp
	TypeTimestampTZ
	TypeBinary
	TypeBlob
	TypeJSON
	TypeUUID
	endTypes
)

var typeNames = [...]string{
	TypeInvalid:     "INVALID",
	TypeTinyInt:     "TINYINT",
	TypeSmallInt:    "SMALLINT",
	TypeInt:         "INT",
	TypeBigInt:      "BIGINT",
	TypeFloat:       "FLOAT",
	TypeDouble:      "DOUBLE",
	TypeDecimal:     "DECIMAL",
	TypeBoolean:     "BOOLEAN",
	TypeChar:        "CHAR",
	TypeVarchar:     "VARCHAR",
	TypeText:        "TEXT",
	TypeDate:        "DATE",
	TypeTime:        "TIME",
	TypeDateTime:    "DATETIME",
	TypeTimestamp:   "TIMESTAMP",
	TypeTimestampTZ: "TIMESTAMPTZ",
	TypeBinary:      "BINARY",
	TypeBlob:        "BLOB",
	TypeJSON:        "JSON",
	TypeUUID:        "UUID",
}

// typeAliases are accepted by ParseColumnType in addition to the type names.
var typeAliases = map[string]ColumnType{
	"INTEGER":   TypeInt,
	"NUMERIC":   TypeDecimal,
	"NUMBER":    TypeDecimal,
	"REAL":      TypeFloat,
	"BOOL":      TypeBoolean,
	"STRING":    TypeVarchar,
	"CLOB":      TypeText,
	"VARBINARY": TypeBinary,
	"BYTES":     TypeBlob,
}

// Types returns every valid column type.
func Types() []ColumnType {
	ts := make([]ColumnType, 0, endTypes-1)
	for t := TypeTinyInt; t < endTypes; t++ {
		ts = append(ts, t)
	}
	return ts
}

// Valid reports whether t is a valid column type.
func (t ColumnType) Valid() bool {
	return t > TypeInvalid && t < endTypes
}

// String returns the canonical upper-case name of the type.
func (t ColumnType) String() string {
	if t >= TypeInvalid && t < endTypes {
		return typeNames[t]
	}
	return fmt.Sprintf("ColumnType(%d)", int(t))
}

// MarshalText implements encoding.TextMarshaler.
func (t ColumnType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: invalid column type %d", treesql.ErrInvalidSchema, int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *ColumnType) UnmarshalText(text []byte) error {
	v, err := ParseColumnType(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ParseColumnType parses a type name case-insensitively, e.g. "varchar" or "integer".
func ParseColumnType(s string) (ColumnType, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for t := TypeTinyInt; t < endTypes; t++ {
		if typeNames[t] == name {
			return t, nil
		}
	}
	if t, ok := typeAliases[name]; ok {
		return t, nil
	}
	return TypeInvalid, fmt.Errorf("%w: unknown column type %q", treesql.ErrInvalidSchema, s)
}

// ReferenceOption is a foreign key referential action.
type ReferenceOption string

// Referential actions.
const (
	NoAction   ReferenceOption = "NO ACTION"
	Restrict   ReferenceOption = "RESTRICT"
	Cascade    ReferenceOption = "CASCADE"
	SetNull    ReferenceOption = "SET NULL"
	SetDefault ReferenceOption = "SET DEFAULT"
)

// Valid reports whether o is empty or a known action.
func (o ReferenceOption) Valid() bool {
	switch o {
	case "", NoAction, Restrict, Cascade, SetNull, SetDefault:
		return true
	}
	return false
}

// ParseReferenceOption parses an action name such as "cascade", "SET_NULL" or "set null".
func ParseReferenceOption(s string) (ReferenceOption, error) {
	o := ReferenceOption(strings.Join(strings.Fields(strings.ToUpper(strings.ReplaceAll(s, "_", " "))), " "))
	if !o.Valid() {
		return "", fmt.Errorf("%w: unknown reference option %q", treesql.ErrInvalidSchema, s)
	}
	return o, nil
}

// Column is a dialect-neutral column definition.
type Column struct {
	Name      string
	Type      ColumnType
	Precision int // Length of character types, precision of numeric types. Zero means unset.
	Scale     int // Scale of numeric types. Zero means unset.
	Nullable  bool
	// Default is a raw SQL expression, emitted verbatim. Empty means no default.
	Default       string
	Comment       string
	PrimaryKey    bool
	AutoIncrement bool
}

// ForeignKey references a column of another table (or of the same table).
type ForeignKey struct {
	Name      string // Constraint name. Optional, see Symbol.
	Column    string
	RefTable  string
	RefColumn string
	OnDelete  ReferenceOption
	OnUpdate  ReferenceOption
}

// Symbol returns the constraint name of the foreign key declared on table:
// its Name if set, fk_<table>_<column> otherwise.
func (fk *ForeignKey) Symbol(table string) string {
	if fk.Name != "" {
		return fk.Name
	}
	return "fk_" + table + "_" + fk.Column
}

// Table is a dialect-neutral table definition.
type Table struct {
	Name        string
	Columns     []*Column
	ForeignKeys []*ForeignKey
	Comment     string
}

// NewTable returns a new table with the given name.
func NewTable(name string) *Table {
	return &Table{Name: name}
}

// AddColumns appends the columns to the table.
func (t *Table) AddColumns(columns ...*Column) *Table {
	t.Columns = append(t.Columns, columns...)
	return t
}

// AddForeignKeys appends the foreign keys to the table.
func (t *Table) AddForeignKeys(fks ...*ForeignKey) *Table {
	t.ForeignKeys = append(t.ForeignKeys, fks...)
	return t
}

// SetComment sets the table comment.
func (t *Table) SetComment(c string) *Table {
	t.Comment = c
	return t
}

// Column returns the column with the given name.
func (t *Table) Column(name string) (*Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// PrimaryKey returns the primary key columns in declaration order.
func (t *Table) PrimaryKey() []*Column {
	var pk []*Column
	for _, c := range t.Columns {
		if c.PrimaryKey {
			pk = append(pk, c)
		}
	}
	return pk
}

// HasComments reports whether the table or any of its columns has a comment.
func (t *Table) HasComments() bool {
	if t.Comment != "" {
		return true
	}
	for _, c := range t.Columns {
		if c.Comment != "" {
			return true
		}
	}
	return false
}

// References returns the distinct names of the tables t has foreign keys into,
// in declaration order.
func (t *Table) References() []string {
	var (
		refs []string
		seen = make(map[string]struct{}, len(t.ForeignKeys))
	)
	for _, fk := range t.ForeignKeys {
		if _, ok := seen[fk.RefTable]; !ok {
			seen[fk.RefTable] = struct{}{}
			refs = append(refs, fk.RefTable)
		}
	}
	return refs
}
