package ddl

import (
	"strings"

	"github.com/syssam/treesql/dialect"
	"github.com/syssam/treesql/dialect/sql/schema"
)

// Postgres renders PostgreSQL DDL.
type Postgres struct{ base }

// NewPostgres returns the PostgreSQL strategy.
func NewPostgres() *Postgres {
	return &Postgres{base{
		dialect:  dialect.Postgres,
		open:     `"`,
		close:    `"`,
		types:    postgresTypes,
		identity: "GENERATED BY DEFAULT AS IDENTITY",
	}}
}

// ModifyColumn changes type, nullability and default in one statement.
func (p *Postgres) ModifyColumn(table string, _, c *schema.Column) (string, error) {
	typ, err := p.ColumnType(c.Type, c.Precision, c.Scale)
	if err != nil {
		return "", err
	}
	col := "ALTER COLUMN " + p.Quote(c.Name)
	actions := []string{col + " TYPE " + typ}
	if c.Nullable {
		actions = append(actions, col+" DROP NOT NULL")
	} else {
		actions = append(actions, col+" SET NOT NULL")
	}
	switch {
	case c.Default != "":
		actions = append(actions, col+" SET DEFAULT "+c.Default)
	case !c.AutoIncrement:
		actions = append(actions, col+" DROP DEFAULT")
	}
	return "ALTER TABLE " + p.Quote(table) + " " + strings.Join(actions, ", "), nil
}

func (p *Postgres) AddComment(t *schema.Table) ([]string, error) {
	return p.commentOn(t), nil
}

func (p *Postgres) Schema(tables []*schema.Table) ([]string, error) {
	return TwoPhase(p, tables)
}
