package ddl

import (
	"strconv"

	"github.com/syssam/treesql"
	"github.com/syssam/treesql/dialect"
	"github.com/syssam/treesql/dialect/sql/schema"
)

// sizing describes how a native type takes parameters.
type sizing int

const (
	fixed   sizing = iota // NAME
	length                // NAME(p)
	numeric               // NAME(p,s)
)

// typeEntry is one entry of a dialect type table.
type typeEntry struct {
	name   string
	sizing sizing
	// Defaults used when the column leaves precision (and scale) unset.
	// A zero precision default emits the bare name.
	precision, scale int
	// Lengths above max are emitted as overflow instead, e.g. VARCHAR2 above
	// 4000 becomes CLOB on Oracle. Zero means unbounded.
	max      int
	overflow string
}

// typeTable maps abstract column types to native types. A type missing from
// the table is not supported by the dialect.
type typeTable map[schema.ColumnType]typeEntry

func (tt typeTable) format(d dialect.Dialect, t schema.ColumnType, precision, scale int) (string, error) {
	e, ok := tt[t]
	if !ok {
		return "", treesql.NewUnsupportedColumnTypeError(string(d), t.String())
	}
	switch e.sizing {
	case length:
		p := precision
		if p <= 0 {
			p = e.precision
		}
		if e.max > 0 && p > e.max {
			return e.overflow, nil
		}
		if p <= 0 {
			return e.name, nil
		}
		return e.name + "(" + strconv.Itoa(p) + ")", nil
	case numeric:
		p, s := precision, scale
		if p <= 0 {
			p, s = e.precision, e.scale
		}
		switch {
		case p <= 0:
			return e.name, nil
		case s > 0:
			return e.name + "(" + strconv.Itoa(p) + "," + strconv.Itoa(s) + ")", nil
		default:
			return e.name + "(" + strconv.Itoa(p) + ")", nil
		}
	default:
		return e.name, nil
	}
}

var mysqlTypes = typeTable{
	schema.TypeTinyInt:     {name: "TINYINT"},
	schema.TypeSmallInt:    {name: "SMALLINT"},
	schema.TypeInt:         {name: "INT"},
	schema.TypeBigInt:      {name: "BIGINT"},
	schema.TypeFloat:       {name: "FLOAT"},
	schema.TypeDouble:      {name: "DOUBLE"},
	schema.TypeDecimal:     {name: "DECIMAL", sizing: numeric, precision: 19, scale: 2},
	schema.TypeBoolean:     {name: "TINYINT(1)"},
	schema.TypeChar:        {name: "CHAR", sizing: length, precision: 1},
	schema.TypeVarchar:     {name: "VARCHAR", sizing: length, precision: 255},
	schema.TypeText:        {name: "TEXT"},
	schema.TypeDate:        {name: "DATE"},
	schema.TypeTime:        {name: "TIME"},
	schema.TypeDateTime:    {name: "DATETIME"},
	schema.TypeTimestamp:   {name: "TIMESTAMP"},
	schema.TypeTimestampTZ: {name: "TIMESTAMP"},
	schema.TypeBinary:      {name: "VARBINARY", sizing: length, precision: 255},
	schema.TypeBlob:        {name: "BLOB"},
	schema.TypeJSON:        {name: "JSON"},
	schema.TypeUUID:        {name: "CHAR(36)"},
}

var postgresTypes = typeTable{
	schema.TypeTinyInt:     {name: "SMALLINT"},
	schema.TypeSmallInt:    {name: "SMALLINT"},
	schema.TypeInt:         {name: "INTEGER"},
	schema.TypeBigInt:      {name: "BIGINT"},
	schema.TypeFloat:       {name: "REAL"},
	schema.TypeDouble:      {name: "DOUBLE PRECISION"},
	schema.TypeDecimal:     {name: "NUMERIC", sizing: numeric, precision: 19, scale: 2},
	schema.TypeBoolean:     {name: "BOOLEAN"},
	schema.TypeChar:        {name: "CHAR", sizing: length, precision: 1},
	schema.TypeVarchar:     {name: "VARCHAR", sizing: length, precision: 255},
	schema.TypeText:        {name: "TEXT"},
	schema.TypeDate:        {name: "DATE"},
	schema.TypeTime:        {name: "TIME"},
	schema.TypeDateTime:    {name: "TIMESTAMP"},
	schema.TypeTimestamp:   {name: "TIMESTAMP"},
	schema.TypeTimestampTZ: {name: "TIMESTAMPTZ"},
	schema.TypeBinary:      {name: "BYTEA"},
	schema.TypeBlob:        {name: "BYTEA"},
	schema.TypeJSON:        {name: "JSONB"},
	schema.TypeUUID:        {name: "UUID"},
}

// Oracle has no time-of-day type.
var oracleTypes = typeTable{
	schema.TypeTinyInt:     {name: "NUMBER(3)"},
	schema.TypeSmallInt:    {name: "NUMBER(5)"},
	schema.TypeInt:         {name: "NUMBER(10)"},
	schema.TypeBigInt:      {name: "NUMBER(19)"},
	schema.TypeFloat:       {name: "BINARY_FLOAT"},
	schema.TypeDouble:      {name: "BINARY_DOUBLE"},
	schema.TypeDecimal:     {name: "NUMBER", sizing: numeric, precision: 19, scale: 2},
	schema.TypeBoolean:     {name: "NUMBER(1)"},
	schema.TypeChar:        {name: "CHAR", sizing: length, precision: 1, max: 2000, overflow: "CLOB"},
	schema.TypeVarchar:     {name: "VARCHAR2", sizing: length, precision: 255, max: 4000, overflow: "CLOB"},
	schema.TypeText:        {name: "CLOB"},
	schema.TypeDate:        {name: "DATE"},
	schema.TypeDateTime:    {name: "TIMESTAMP"},
	schema.TypeTimestamp:   {name: "TIMESTAMP"},
	schema.TypeTimestampTZ: {name: "TIMESTAMP WITH TIME ZONE"},
	schema.TypeBinary:      {name: "RAW", sizing: length, precision: 255, max: 2000, overflow: "BLOB"},
	schema.TypeBlob:        {name: "BLOB"},
	schema.TypeJSON:        {name: "CLOB"},
	schema.TypeUUID:        {name: "VARCHAR2(36)"},
}

// SQL Server has no native JSON column type.
var sqlserverTypes = typeTable{
	schema.TypeTinyInt:     {name: "TINYINT"},
	schema.TypeSmallInt:    {name: "SMALLINT"},
	schema.TypeInt:         {name: "INT"},
	schema.TypeBigInt:      {name: "BIGINT"},
	schema.TypeFloat:       {name: "REAL"},
	schema.TypeDouble:      {name: "FLOAT"},
	schema.TypeDecimal:     {name: "DECIMAL", sizing: numeric, precision: 19, scale: 2},
	schema.TypeBoolean:     {name: "BIT"},
	schema.TypeChar:        {name: "NCHAR", sizing: length, precision: 1, max: 4000, overflow: "NVARCHAR(MAX)"},
	schema.TypeVarchar:     {name: "NVARCHAR", sizing: length, precision: 255, max: 4000, overflow: "NVARCHAR(MAX)"},
	schema.TypeText:        {name: "NVARCHAR(MAX)"},
	schema.TypeDate:        {name: "DATE"},
	schema.TypeTime:        {name: "TIME"},
	schema.TypeDateTime:    {name: "DATETIME2"},
	schema.TypeTimestamp:   {name: "DATETIME2"},
	schema.TypeTimestampTZ: {name: "DATETIMEOFFSET"},
	schema.TypeBinary:      {name: "VARBINARY", sizing: length, precision: 255, max: 8000, overflow: "VARBINARY(MAX)"},
	schema.TypeBlob:        {name: "VARBINARY(MAX)"},
	schema.TypeUUID:        {name: "UNIQUEIDENTIFIER"},
}

var h2Types = typeTable{
	schema.TypeTinyInt:     {name: "TINYINT"},
	schema.TypeSmallInt:    {name: "SMALLINT"},
	schema.TypeInt:         {name: "INTEGER"},
	schema.TypeBigInt:      {name: "BIGINT"},
	schema.TypeFloat:       {name: "REAL"},
	schema.TypeDouble:      {name: "DOUBLE PRECISION"},
	schema.TypeDecimal:     {name: "DECIMAL", sizing: numeric, precision: 19, scale: 2},
	schema.TypeBoolean:     {name: "BOOLEAN"},
	schema.TypeChar:        {name: "CHAR", sizing: length, precision: 1},
	schema.TypeVarchar:     {name: "VARCHAR", sizing: length, precision: 255},
	schema.TypeText:        {name: "CLOB"},
	schema.TypeDate:        {name: "DATE"},
	schema.TypeTime:        {name: "TIME"},
	schema.TypeDateTime:    {name: "TIMESTAMP"},
	schema.TypeTimestamp:   {name: "TIMESTAMP"},
	schema.TypeTimestampTZ: {name: "TIMESTAMP WITH TIME ZONE"},
	schema.TypeBinary:      {name: "VARBINARY", sizing: length, precision: 255},
	schema.TypeBlob:        {name: "BLOB"},
	schema.TypeJSON:        {name: "JSON"},
	schema.TypeUUID:        {name: "UUID"},
}

// SQLite accepts any type name and derives a storage affinity from it.
// INTEGER is required for AUTOINCREMENT primary keys.
var sqliteTypes = typeTable{
	schema.TypeTinyInt:     {name: "INTEGER"},
	schema.TypeSmallInt:    {name: "INTEGER"},
	schema.TypeInt:         {name: "INTEGER"},
	schema.TypeBigInt:      {name: "INTEGER"},
	schema.TypeFloat:       {name: "REAL"},
	schema.TypeDouble:      {name: "REAL"},
	schema.TypeDecimal:     {name: "NUMERIC", sizing: numeric},
	schema.TypeBoolean:     {name: "BOOLEAN"},
	schema.TypeChar:        {name: "CHAR", sizing: length, precision: 1},
	schema.TypeVarchar:     {name: "VARCHAR", sizing: length, precision: 255},
	schema.TypeText:        {name: "TEXT"},
	schema.TypeDate:        {name: "DATE"},
	schema.TypeTime:        {name: "TIME"},
	schema.TypeDateTime:    {name: "DATETIME"},
	schema.TypeTimestamp:   {name: "TIMESTAMP"},
	schema.TypeTimestampTZ: {name: "TIMESTAMP"},
	schema.TypeBinary:      {name: "BLOB"},
	schema.TypeBlob:        {name: "BLOB"},
	schema.TypeJSON:        {name: "JSON"},
	schema.TypeUUID:        {name: "TEXT"},
}
