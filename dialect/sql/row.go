package sql

import (
	"errors"
	"strings"
)

// Row is one materialized result row. Columns and Values share an index.
type Row struct {
	Columns []string
	Values  []any
}

// Get returns the value of the named column. Names are matched
// case-insensitively since Oracle and H2 upper-case unquoted aliases.
func (r Row) Get(name string) (any, bool) {
	for i, c := range r.Columns {
		if strings.EqualFold(c, name) {
			return r.Values[i], true
		}
	}
	return nil, false
}

// Map returns the row as a column name to value map.
func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r.Columns))
	for i, c := range r.Columns {
		m[c] = r.Values[i]
	}
	return m
}

// ScanRows reads every row of rows and closes it.
// Byte slices are converted to strings, as drivers return text columns that way.
func ScanRows(rows ColumnScanner) (_ []Row, rerr error) {
	defer func() { rerr = errors.Join(rerr, rows.Close()) }()
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var list []Row
	for rows.Next() {
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		list = append(list, Row{Columns: columns, Values: values})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}
