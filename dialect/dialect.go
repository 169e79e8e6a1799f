package dialect

import (
	"fmt"
	"strings"

	"github.com/syssam/treesql"
)

// Dialect identifies a relational engine's SQL syntax variant.
// It is a pure dispatch key: strategies are selected by it.
type Dialect string

// Base dialects with their own strategies.
const (
	MySQL     Dialect = "mysql"
	Postgres  Dialect = "postgres"
	Oracle    Dialect = "oracle"
	SQLServer Dialect = "sqlserver"
	H2        Dialect = "h2"
	SQLite    Dialect = "sqlite"
)

// Compatible engines. They speak the syntax of their Family and are
// served by the family strategy when the caller opts into a fallback.
const (
	TiDB      Dialect = "tidb"
	OceanBase Dialect = "oceanbase"
	PolarDB   Dialect = "polardb"
	Kingbase  Dialect = "kingbase"
	GaussDB   Dialect = "gaussdb"
	DM        Dialect = "dm"
)

// all lists every known dialect in a stable order.
var all = []Dialect{
	MySQL, Postgres, Oracle, SQLServer, H2, SQLite,
	TiDB, OceanBase, PolarDB, Kingbase, GaussDB, DM,
}

// aliases maps alternative spellings (driver names, JDBC sub-protocols) to dialects.
var aliases = map[string]Dialect{
	"mariadb":    MySQL,
	"postgresql": Postgres,
	"pg":         Postgres,
	"pgx":        Postgres,
	"mssql":      SQLServer,
	"sqlite3":    SQLite,
	"dameng":     DM,
	"kingbase8":  Kingbase,
	"opengauss":  GaussDB,
}

// All returns every known dialect.
func All() []Dialect {
	return append([]Dialect(nil), all...)
}

// String implements fmt.Stringer.
func (d Dialect) String() string { return string(d) }

// Valid reports whether d is a known dialect.
func (d Dialect) Valid() bool {
	for _, k := range all {
		if k == d {
			return true
		}
	}
	return false
}

// Family returns the base dialect whose syntax d speaks.
func (d Dialect) Family() Dialect {
	switch d {
	case TiDB, OceanBase, PolarDB:
		return MySQL
	case Kingbase, GaussDB:
		return Postgres
	case DM:
		return Oracle
	default:
		return d
	}
}

// DriverName returns the database/sql driver name conventionally used for d,
// or an empty string if there is no registered Go driver for it.
func (d Dialect) DriverName() string {
	switch d.Family() {
	case MySQL:
		return "mysql"
	case Postgres:
		return "postgres"
	case SQLServer:
		return "sqlserver"
	case SQLite:
		return "sqlite"
	default:
		return ""
	}
}

// Parse returns the dialect for the given name. Matching is case-insensitive
// and accepts common aliases such as "postgresql" or "mssql".
func Parse(name string) (Dialect, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if d := Dialect(n); d.Valid() {
		return d, nil
	}
	if d, ok := aliases[n]; ok {
		return d, nil
	}
	return "", fmt.Errorf("%w: unknown dialect name %q", treesql.ErrUnsupportedDialect, name)
}

// FromDSN detects the dialect of a connection string. Both JDBC URLs
// ("jdbc:mysql://...") and Go driver DSNs ("postgres://...",
// "user:pass@tcp(host)/db", "file:test.db") are recognized.
func FromDSN(dsn string) (Dialect, bool) {
	s := strings.TrimSpace(dsn)
	s = strings.TrimPrefix(s, "jdbc:")
	if i := strings.Index(s, ":"); i > 0 {
		if d, err := Parse(s[:i]); err == nil {
			return d, true
		}
	}
	switch {
	case strings.Contains(s, "@tcp(") || strings.Contains(s, "@unix("):
		return MySQL, true
	case strings.HasPrefix(s, "file:") || s == ":memory:" ||
		strings.HasSuffix(s, ".db") || strings.HasSuffix(s, ".sqlite"):
		return SQLite, true
	}
	return "", false
}
