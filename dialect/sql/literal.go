package sql

import (
	"database/sql/driver"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/syssam/treesql"
	"github.com/syssam/treesql/dialect"
)

// TimeLayout is the layout of rendered timestamp literals.
const TimeLayout = "2006-01-02 15:04:05.999999"

// escapeStringValue escapes a string value for safe use in SQL.
// It escapes both single quotes (by doubling) and backslashes (for MySQL compatibility).
func escapeStringValue(s string) string {
	// Fast path: if no escaping needed, return as-is
	if !strings.ContainsAny(s, `'\`) {
		return s
	}
	// Escape backslashes first, then single quotes
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "'", "''")
	return s
}

// QuoteString returns s as a quoted string literal of the dialect.
// MySQL family dialects treat the backslash as an escape character,
// all others only need the single quote doubled. SQL Server literals
// carry the N prefix so non-Latin text survives varchar collations.
func QuoteString(d dialect.Dialect, s string) string {
	switch d.Family() {
	case dialect.MySQL:
		return "'" + escapeStringValue(s) + "'"
	case dialect.SQLServer:
		return "N'" + strings.ReplaceAll(s, "'", "''") + "'"
	}
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// Literal renders v as a SQL literal of the dialect.
//
// Strings, byte slices and fmt.Stringer values are quoted, numbers are not.
// Booleans are TRUE/FALSE, or 1/0 on dialects without a boolean literal.
// Slices render as a comma-separated list for use inside IN (...), and an
// empty slice renders as NULL. driver.Valuer values are resolved first.
func Literal(d dialect.Dialect, v any) (string, error) {
	if isNilPointer(v) {
		return "NULL", nil
	}
	if val, ok := v.(driver.Valuer); ok {
		resolved, err := val.Value()
		if err != nil {
			return "", fmt.Errorf("%w: %T: %w", treesql.ErrUnsupportedValue, v, err)
		}
		v = resolved
	}
	switch v := v.(type) {
	case nil:
		return "NULL", nil
	case string:
		return QuoteString(d, v), nil
	case []byte:
		return QuoteString(d, string(v)), nil
	case bool:
		return boolLiteral(d, v), nil
	case time.Time:
		return timeLiteral(d, v), nil
	case int:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return floatLiteral(v, 64)
	case float32:
		return floatLiteral(float64(v), 32)
	case fmt.Stringer:
		return QuoteString(d, v.String()), nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		return floatLiteral(rv.Float(), rv.Type().Bits())
	case reflect.String:
		return QuoteString(d, rv.String()), nil
	case reflect.Bool:
		return boolLiteral(d, rv.Bool()), nil
	case reflect.Pointer:
		return Literal(d, rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		if rv.Len() == 0 {
			return "NULL", nil
		}
		items := make([]string, rv.Len())
		for i := range items {
			s, err := Literal(d, rv.Index(i).Interface())
			if err != nil {
				return "", err
			}
			items[i] = s
		}
		return strings.Join(items, ", "), nil
	}
	return "", fmt.Errorf("%w: %T", treesql.ErrUnsupportedValue, v)
}

func boolLiteral(d dialect.Dialect, b bool) string {
	switch d.Family() {
	case dialect.SQLServer, dialect.Oracle:
		if b {
			return "1"
		}
		return "0"
	}
	if b {
		return "TRUE"
	}
	return "FALSE"
}

func timeLiteral(d dialect.Dialect, t time.Time) string {
	s := QuoteString(d, t.Format(TimeLayout))
	if d.Family() == dialect.Oracle {
		return "TIMESTAMP " + s
	}
	return s
}

func floatLiteral(f float64, bits int) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("%w: %v has no SQL literal", treesql.ErrUnsupportedValue, f)
	}
	return strconv.FormatFloat(f, 'g', -1, bits), nil
}

func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
