package database

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
)

// Supported dialects.
const (
	MySQL    = "mysql"
	Postgres = "postgres"
)

// Dialect hides the few statement and error differences between MySQL and
// Postgres.  Repositories write statements with ? placeholders and pass
// them through Rebind.
type Dialect struct {
	Name string
}

// DialectFor returns the dialect for a DB_DRIVER value.
func DialectFor(driver string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", MySQL:
		return Dialect{Name: MySQL}, nil
	case Postgres, "pgx", "postgresql":
		return Dialect{Name: Postgres}, nil
	}
	return Dialect{}, fmt.Errorf("unsupported DB_DRIVER %q", driver)
}

func (d Dialect) driverName() string {
	if d.Name == Postgres {
		return "pgx"
	}
	return "mysql"
}

// Rebind rewrites ? placeholders into $1, $2, ... for Postgres.  Question
// marks inside single-quoted literals are left alone.
func (d Dialect) Rebind(q string) string {
	if d.Name != Postgres {
		return q
	}
	var b strings.Builder
	b.Grow(len(q) + 8)
	n := 0
	inQuote := false
	for i := 0; i < len(q); i++ {
		ch := q[i]
		switch {
		case ch == '\'':
			inQuote = !inQuote
			b.WriteByte(ch)
		case ch == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}

// IsUniqueViolation reports whether err is a unique/primary key violation
// (MySQL 1062, Postgres 23505).
func IsUniqueViolation(err error) bool {
	var my *mysql.MySQLError
	if errors.As(err, &my) {
		return my.Number == 1062
	}
	var pg *pgconn.PgError
	if errors.As(err, &pg) {
		return pg.Code == "23505"
	}
	return false
}
