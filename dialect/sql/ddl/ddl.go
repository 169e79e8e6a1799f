package ddl

import (
	"strings"

	"github.com/syssam/treesql"
	"github.com/syssam/treesql/dialect"
	"github.com/syssam/treesql/dialect/sql"
	"github.com/syssam/treesql/dialect/sql/schema"
)

// Strategy renders DDL statements for one dialect. Statements are returned
// without a trailing semicolon.
type Strategy interface {
	dialect.Supporter

	// Dialect returns the dialect the strategy renders.
	Dialect() dialect.Dialect

	// ColumnType returns the native type of an abstract column type.
	// Zero precision or scale means unset and the dialect default applies.
	ColumnType(t schema.ColumnType, precision, scale int) (string, error)

	// CreateTable returns the CREATE TABLE statement. It never contains
	// foreign key clauses or comments.
	CreateTable(t *schema.Table) (string, error)
	DropTable(name string) string
	AddColumn(table string, c *schema.Column) (string, error)
	DropColumn(table, column string) string

	// ModifyColumn changes the definition of column from into to. A nil
	// from renders the complete definition of to.
	ModifyColumn(table string, from, to *schema.Column) (string, error)

	AddForeignKey(table string, fk *schema.ForeignKey) (string, error)
	DropForeignKey(table string, fk *schema.ForeignKey) (string, error)

	// AddComment returns the statements attaching the table and column
	// comments. It returns nothing when the table has no comments.
	AddComment(t *schema.Table) ([]string, error)

	// Schema returns the statements creating all tables, in an order the
	// database accepts regardless of references between them.
	Schema(tables []*schema.Table) ([]string, error)
}

// TwoPhase renders tables in two phases: every CREATE TABLE first, then the
// foreign keys and comments of each table. Forward references and cycles
// are valid because no constraint is added before its target exists.
func TwoPhase(s Strategy, tables []*schema.Table) ([]string, error) {
	stmts := make([]string, 0, len(tables))
	for _, t := range tables {
		stmt, err := s.CreateTable(t)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	for _, t := range tables {
		for _, fk := range t.ForeignKeys {
			stmt, err := s.AddForeignKey(t.Name, fk)
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, stmt)
		}
		comments, err := s.AddComment(t)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, comments...)
	}
	return stmts, nil
}

// SchemaOf renders all tables of the context in their declaration order.
func SchemaOf(s Strategy, ctx *schema.Context) ([]string, error) {
	return s.Schema(ctx.Tables())
}

// Script joins statements into one script, each terminated by a semicolon.
func Script(stmts []string) string {
	var b strings.Builder
	for _, stmt := range stmts {
		b.WriteString(stmt)
		b.WriteString(";\n")
	}
	return b.String()
}

// base implements the statement shapes most dialects share. Dialect types
// embed it and override what differs.
type base struct {
	dialect     dialect.Dialect
	open, close string
	types       typeTable
	// identity follows the column type of auto-increment columns.
	identity string
	// identityLast places identity after NOT NULL instead.
	identityLast bool
}

func (b base) Supports(d dialect.Dialect) bool { return d == b.dialect }

func (b base) Dialect() dialect.Dialect { return b.dialect }

// Quote returns the quoted identifier. The closing quote character is
// doubled inside the name.
func (b base) Quote(name string) string {
	return b.open + strings.ReplaceAll(name, b.close, b.close+b.close) + b.close
}

func (b base) ColumnType(t schema.ColumnType, precision, scale int) (string, error) {
	return b.types.format(b.dialect, t, precision, scale)
}

// literal renders a string literal.
func (b base) literal(s string) string {
	return sql.QuoteString(b.dialect, s)
}

// columnDef renders "name TYPE [identity] [DEFAULT x] [NOT NULL] [PRIMARY KEY]".
// Modify statements pass pk false and keys false, as they never change keys.
func (b base) columnDef(c *schema.Column, pk, keys bool) (string, error) {
	typ, err := b.ColumnType(c.Type, c.Precision, c.Scale)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString(b.Quote(c.Name))
	sb.WriteByte(' ')
	sb.WriteString(typ)
	identity := keys && c.AutoIncrement && b.identity != ""
	if identity && !b.identityLast {
		sb.WriteString(" " + b.identity)
	}
	if c.Default != "" && !(keys && c.AutoIncrement) {
		sb.WriteString(" DEFAULT " + c.Default)
	}
	if !c.Nullable {
		sb.WriteString(" NOT NULL")
	}
	if identity && b.identityLast {
		sb.WriteString(" " + b.identity)
	}
	if pk {
		sb.WriteString(" PRIMARY KEY")
	}
	return sb.String(), nil
}

// createTable renders the CREATE TABLE statement with the given column
// definition function and extra table constraints.
func (b base) createTable(t *schema.Table, def func(*schema.Column, bool, bool) (string, error), extra ...string) (string, error) {
	if len(t.Columns) == 0 {
		return "", treesql.NewSchemaError(t.Name, "", "table has no columns")
	}
	pks := t.PrimaryKey()
	lines := make([]string, 0, len(t.Columns)+1+len(extra))
	for _, c := range t.Columns {
		line, err := def(c, c.PrimaryKey && len(pks) == 1, true)
		if err != nil {
			return "", err
		}
		lines = append(lines, line)
	}
	if len(pks) > 1 {
		names := make([]string, len(pks))
		for i, c := range pks {
			names[i] = b.Quote(c.Name)
		}
		lines = append(lines, "PRIMARY KEY ("+strings.Join(names, ", ")+")")
	}
	lines = append(lines, extra...)
	return "CREATE TABLE " + b.Quote(t.Name) + " (\n  " + strings.Join(lines, ",\n  ") + "\n)", nil
}

func (b base) CreateTable(t *schema.Table) (string, error) {
	return b.createTable(t, b.columnDef)
}

func (b base) DropTable(name string) string {
	return "DROP TABLE IF EXISTS " + b.Quote(name)
}

func (b base) AddColumn(table string, c *schema.Column) (string, error) {
	def, err := b.columnDef(c, false, true)
	if err != nil {
		return "", err
	}
	return "ALTER TABLE " + b.Quote(table) + " ADD COLUMN " + def, nil
}

func (b base) DropColumn(table, column string) string {
	return "ALTER TABLE " + b.Quote(table) + " DROP COLUMN " + b.Quote(column)
}

// references renders "FOREIGN KEY (c) REFERENCES t (rc)" and the actions.
func (b base) references(fk *schema.ForeignKey, onDelete, onUpdate schema.ReferenceOption) string {
	var sb strings.Builder
	sb.WriteString("FOREIGN KEY (" + b.Quote(fk.Column) + ") REFERENCES " + b.Quote(fk.RefTable) + " (" + b.Quote(fk.RefColumn) + ")")
	if onDelete != "" {
		sb.WriteString(" ON DELETE " + string(onDelete))
	}
	if onUpdate != "" {
		sb.WriteString(" ON UPDATE " + string(onUpdate))
	}
	return sb.String()
}

func (b base) addForeignKey(table string, fk *schema.ForeignKey, onDelete, onUpdate schema.ReferenceOption) (string, error) {
	if err := checkForeignKey(table, fk); err != nil {
		return "", err
	}
	return "ALTER TABLE " + b.Quote(table) + " ADD CONSTRAINT " + b.Quote(fk.Symbol(table)) + " " +
		b.references(fk, onDelete, onUpdate), nil
}

func (b base) AddForeignKey(table string, fk *schema.ForeignKey) (string, error) {
	return b.addForeignKey(table, fk, fk.OnDelete, fk.OnUpdate)
}

func (b base) DropForeignKey(table string, fk *schema.ForeignKey) (string, error) {
	return "ALTER TABLE " + b.Quote(table) + " DROP CONSTRAINT " + b.Quote(fk.Symbol(table)), nil
}

// commentOn renders COMMENT ON TABLE and COMMENT ON COLUMN statements.
func (b base) commentOn(t *schema.Table) []string {
	var stmts []string
	if t.Comment != "" {
		stmts = append(stmts, "COMMENT ON TABLE "+b.Quote(t.Name)+" IS "+b.literal(t.Comment))
	}
	for _, c := range t.Columns {
		if c.Comment != "" {
			stmts = append(stmts, "COMMENT ON COLUMN "+b.Quote(t.Name)+"."+b.Quote(c.Name)+" IS "+b.literal(c.Comment))
		}
	}
	return stmts
}

func checkForeignKey(table string, fk *schema.ForeignKey) error {
	if fk.Column == "" || fk.RefTable == "" || fk.RefColumn == "" {
		return treesql.NewSchemaError(table, fk.Column, "incomplete foreign key")
	}
	return nil
}
