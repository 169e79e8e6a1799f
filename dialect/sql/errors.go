package sql

import (
	"errors"
	"slices"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// Applying DDL to a populated database fails when existing rows violate a
// new constraint, e.g. adding a foreign key over orphaned rows. The
// functions below classify such driver errors without the caller
// depending on a particular driver.

// sqlStateError is implemented by the PostgreSQL drivers (lib/pq and pgx).
type sqlStateError interface {
	SQLState() string
}

// violation lists how the drivers report one kind of constraint violation.
type violation struct {
	sqlState string   // SQLSTATE class 23 code.
	mysql    []uint16 // MySQL error numbers.
	// Message fragments for drivers without structured codes: SQLite,
	// SQL Server and Oracle.
	messages []string
}

var (
	uniqueViolation = violation{
		sqlState: "23505",
		mysql:    []uint16{1062},
		messages: []string{"Error 1062", "violates unique constraint", "UNIQUE constraint failed", "Violation of UNIQUE KEY constraint", "Violation of PRIMARY KEY constraint", "ORA-00001"},
	}
	foreignKeyViolation = violation{
		sqlState: "23503",
		mysql:    []uint16{1451, 1452},
		messages: []string{"Error 1451", "Error 1452", "violates foreign key constraint", "FOREIGN KEY constraint failed", "conflicted with the FOREIGN KEY constraint", "ORA-02291", "ORA-02292"},
	}
	checkViolation = violation{
		sqlState: "23514",
		mysql:    []uint16{3819},
		messages: []string{"Error 3819", "violates check constraint", "CHECK constraint failed", "conflicted with the CHECK constraint", "ORA-02290"},
	}
)

func (v violation) match(err error) bool {
	if err == nil {
		return false
	}
	var s sqlStateError
	if errors.As(err, &s) && s.SQLState() == v.sqlState {
		return true
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) && slices.Contains(v.mysql, me.Number) {
		return true
	}
	msg := err.Error()
	return slices.ContainsFunc(v.messages, func(m string) bool {
		return strings.Contains(msg, m)
	})
}

// IsConstraintError reports whether err is a unique, foreign key or check
// constraint violation.
func IsConstraintError(err error) bool {
	return IsUniqueConstraintError(err) || IsForeignKeyConstraintError(err) || IsCheckConstraintError(err)
}

// IsUniqueConstraintError reports whether err is a unique or primary key violation.
func IsUniqueConstraintError(err error) bool { return uniqueViolation.match(err) }

// IsForeignKeyConstraintError reports whether err is a foreign key violation:
// a missing parent row, or a parent row that still has children.
func IsForeignKeyConstraintError(err error) bool { return foreignKeyViolation.match(err) }

// IsCheckConstraintError reports whether err is a check constraint violation.
func IsCheckConstraintError(err error) bool { return checkViolation.match(err) }
