package cte

import (
	"fmt"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// Direction selects the rows a tree query returns.
type Direction int

const (
	// Up returns the anchor rows and their ancestors.
	Up Direction = iota
	// UpAndDown returns the anchor rows, their ancestors and their descendants.
	UpAndDown
)

// String implements fmt.Stringer.
func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case UpAndDown:
		return "up_and_down"
	default:
		return "Direction(" + strconv.Itoa(int(d)) + ")"
	}
}

// WrapperContext is a predicate with named #{name} placeholders and the
// values to render into them. A leading WHERE keyword is ignored.
type WrapperContext struct {
	Segment string
	Params  map[string]any
}

// Where returns a WrapperContext without parameters.
func Where(segment string) WrapperContext {
	return WrapperContext{Segment: segment}
}

// FilterFrom converts a squirrel predicate into a WrapperContext. Its ?
// placeholders become #{p1}, #{p2}, ... so the arguments are rendered as
// literals of the target dialect.
func FilterFrom(s sq.Sqlizer) (WrapperContext, error) {
	query, args, err := s.ToSql()
	if err != nil {
		return WrapperContext{}, fmt.Errorf("cte: filter: %w", err)
	}
	var (
		b      strings.Builder
		params = make(map[string]any, len(args))
		quoted bool
		n      int
	)
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			quoted = !quoted
		case c == '?' && !quoted:
			if n == len(args) {
				return WrapperContext{}, fmt.Errorf("cte: filter: more placeholders than arguments in %q", query)
			}
			n++
			name := "p" + strconv.Itoa(n)
			params[name] = args[n-1]
			b.WriteString("#{" + name + "}")
			continue
		}
		b.WriteByte(c)
	}
	if n != len(args) {
		return WrapperContext{}, fmt.Errorf("cte: filter: %d placeholders for %d arguments in %q", n, len(args), query)
	}
	return WrapperContext{Segment: b.String(), Params: params}, nil
}

// Request describes a tree query over a self-referencing table.
type Request struct {
	Table    string
	ID       string // Primary key column.
	ParentID string // Column referencing the parent row's ID.

	Direction Direction

	// Breadcrumb adds the tree_breadcrumb column: the BreadcrumbColumn
	// values from the root down to the row, joined by BreadcrumbSeparator.
	// BreadcrumbColumn defaults to ID.
	Breadcrumb       bool
	BreadcrumbColumn string

	// MaxDepth bounds the walk in each direction. Zero means unbounded.
	MaxDepth int

	// Anchor selects the rows the walk starts from. An empty anchor
	// starts from every row.
	Anchor WrapperContext
	// Filter is applied to the result rows. It may reference the table
	// columns and tree_depth, tree_direction and tree_breadcrumb.
	Filter WrapperContext
}

// Query is a Request with its predicates rendered to SQL.
type Query struct {
	Table            string
	ID               string
	ParentID         string
	Breadcrumb       bool
	BreadcrumbColumn string
	MaxDepth         int
	Anchor           string
	Filter           string
}

// stripWhere removes a leading WHERE keyword.
func stripWhere(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 5 && strings.EqualFold(s[:5], "WHERE") && (len(s) == 5 || s[5] == ' ' || s[5] == '\n' || s[5] == '\t' || s[5] == '(') {
		s = strings.TrimSpace(s[5:])
	}
	return s
}
