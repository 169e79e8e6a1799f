package sql

import (
	"fmt"
	"strings"

	"github.com/syssam/treesql"
	"github.com/syssam/treesql/dialect"
)

// Placeholder delimiters of a named template parameter: #{name}.
const (
	placeholderOpen  = "#{"
	placeholderClose = '}'
)

// TemplateParser substitutes #{name} placeholders in a SQL fragment with
// literals of its dialect.
//
//	p := sql.TemplateParser{Dialect: dialect.MySQL}
//	s, err := p.Parse("name = #{name} AND age > #{age}", map[string]any{"name": "O'Brien", "age": 30})
//	// name = 'O''Brien' AND age > 30
//
// Substituted values are never scanned again, so a value containing "#{x}"
// is rendered as a plain string.
type TemplateParser struct {
	Dialect dialect.Dialect
}

// ParseTemplate is a shorthand for TemplateParser{Dialect: d}.Parse(tmpl, params).
func ParseTemplate(d dialect.Dialect, tmpl string, params map[string]any) (string, error) {
	return TemplateParser{Dialect: d}.Parse(tmpl, params)
}

// Parse returns tmpl with every placeholder replaced. A placeholder whose
// name is absent from params fails with a *treesql.MissingParameterError.
func (p TemplateParser) Parse(tmpl string, params map[string]any) (string, error) {
	if !strings.Contains(tmpl, placeholderOpen) {
		return tmpl, nil
	}
	var (
		b    strings.Builder
		rest = tmpl
	)
	b.Grow(len(tmpl))
	for {
		i := strings.Index(rest, placeholderOpen)
		if i < 0 {
			b.WriteString(rest)
			return b.String(), nil
		}
		b.WriteString(rest[:i])
		rest = rest[i+len(placeholderOpen):]
		j := strings.IndexByte(rest, placeholderClose)
		if j < 0 {
			return "", fmt.Errorf("%w: unterminated placeholder in %q", treesql.ErrMalformedTemplate, tmpl)
		}
		name := strings.TrimSpace(rest[:j])
		if name == "" {
			return "", fmt.Errorf("%w: empty placeholder in %q", treesql.ErrMalformedTemplate, tmpl)
		}
		v, ok := lookupParam(params, name)
		if !ok {
			return "", treesql.NewMissingParameterError(name, tmpl)
		}
		lit, err := Literal(p.Dialect, v)
		if err != nil {
			return "", fmt.Errorf("dialect/sql: parameter %q: %w", name, err)
		}
		b.WriteString(lit)
		rest = rest[j+1:]
	}
}

// lookupParam resolves name in params. Wrapper-style names such as
// "ew.paramNameValuePairs.P1" fall back to their last dotted segment.
func lookupParam(params map[string]any, name string) (any, bool) {
	if v, ok := params[name]; ok {
		return v, true
	}
	if i := strings.LastIndexByte(name, '.'); i >= 0 && i < len(name)-1 {
		v, ok := params[name[i+1:]]
		return v, ok
	}
	return nil, false
}

// Placeholders returns the distinct placeholder names of tmpl in order of
// first appearance. Malformed trailing placeholders are ignored.
func Placeholders(tmpl string) []string {
	var (
		names []string
		seen  = make(map[string]struct{})
		rest  = tmpl
	)
	for {
		i := strings.Index(rest, placeholderOpen)
		if i < 0 {
			return names
		}
		rest = rest[i+len(placeholderOpen):]
		j := strings.IndexByte(rest, placeholderClose)
		if j < 0 {
			return names
		}
		if name := strings.TrimSpace(rest[:j]); name != "" {
			if _, ok := seen[name]; !ok {
				seen[name] = struct{}{}
				names = append(names, name)
			}
		}
		rest = rest[j+1:]
	}
}
