package ddl

import (
	"github.com/syssam/treesql/dialect"
	"github.com/syssam/treesql/dialect/sql/schema"
)

// SQLServer renders Microsoft SQL Server DDL. Comments are stored as
// MS_Description extended properties of the dbo schema.
type SQLServer struct{ base }

// NewSQLServer returns the SQL Server strategy.
func NewSQLServer() *SQLServer {
	return &SQLServer{base{
		dialect:  dialect.SQLServer,
		open:     "[",
		close:    "]",
		types:    sqlserverTypes,
		identity: "IDENTITY(1,1)",
	}}
}

func (s *SQLServer) AddColumn(table string, c *schema.Column) (string, error) {
	def, err := s.columnDef(c, false, true)
	if err != nil {
		return "", err
	}
	return "ALTER TABLE " + s.Quote(table) + " ADD " + def, nil
}

// ModifyColumn changes type and nullability. ALTER COLUMN cannot change
// defaults, which are separate constraints in SQL Server.
func (s *SQLServer) ModifyColumn(table string, _, c *schema.Column) (string, error) {
	typ, err := s.ColumnType(c.Type, c.Precision, c.Scale)
	if err != nil {
		return "", err
	}
	null := " NULL"
	if !c.Nullable {
		null = " NOT NULL"
	}
	return "ALTER TABLE " + s.Quote(table) + " ALTER COLUMN " + s.Quote(c.Name) + " " + typ + null, nil
}

// AddForeignKey maps RESTRICT to NO ACTION, which is how SQL Server
// spells it.
func (s *SQLServer) AddForeignKey(table string, fk *schema.ForeignKey) (string, error) {
	return s.addForeignKey(table, fk, restrictAsNoAction(fk.OnDelete), restrictAsNoAction(fk.OnUpdate))
}

func (s *SQLServer) AddComment(t *schema.Table) ([]string, error) {
	var stmts []string
	if t.Comment != "" {
		stmts = append(stmts, s.describe(t.Comment, t.Name, ""))
	}
	for _, c := range t.Columns {
		if c.Comment != "" {
			stmts = append(stmts, s.describe(c.Comment, t.Name, c.Name))
		}
	}
	return stmts, nil
}

func (s *SQLServer) describe(comment, table, column string) string {
	stmt := "EXEC sp_addextendedproperty @name = N'MS_Description', @value = " + s.literal(comment) +
		", @level0type = N'SCHEMA', @level0name = N'dbo', @level1type = N'TABLE', @level1name = " + s.literal(table)
	if column != "" {
		stmt += ", @level2type = N'COLUMN', @level2name = " + s.literal(column)
	}
	return stmt
}

func (s *SQLServer) Schema(tables []*schema.Table) ([]string, error) {
	return TwoPhase(s, tables)
}

func restrictAsNoAction(o schema.ReferenceOption) schema.ReferenceOption {
	if o == schema.Restrict {
		return schema.NoAction
	}
	return o
}
