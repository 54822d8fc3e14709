package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/travel-booking-core/internal/database"
)

// DefaultTimeout bounds a single round trip when Conn.Timeout is zero.
const DefaultTimeout = 5 * time.Second

// Conn bundles what every repository needs: the pool, the SQL dialect and
// the per round trip timeout.
type Conn struct {
	DB      *sql.DB
	Dialect database.Dialect
	Timeout time.Duration
}

// NewConn returns a Conn; a non-positive timeout selects DefaultTimeout.
func NewConn(db *sql.DB, d database.Dialect, timeout time.Duration) Conn {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return Conn{DB: db, Dialect: d, Timeout: timeout}
}

func (c Conn) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	t := c.Timeout
	if t <= 0 {
		t = DefaultTimeout
	}
	return context.WithTimeout(ctx, t)
}

func (c Conn) exec(ctx context.Context, q string, args ...any) (sql.Result, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()
	res, err := c.DB.ExecContext(ctx, c.Dialect.Rebind(q), args...)
	return res, fail(ctx, err)
}

// query runs q and hands each row to scan.  The timeout covers the whole
// iteration.
func (c Conn) query(ctx context.Context, q string, scan func(*sql.Rows) error, args ...any) error {
	ctx, cancel := c.bound(ctx)
	defer cancel()
	rows, err := c.DB.QueryContext(ctx, c.Dialect.Rebind(q), args...)
	if err != nil {
		return fail(ctx, err)
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return fail(ctx, err)
		}
	}
	return fail(ctx, rows.Err())
}

func (c Conn) queryRow(ctx context.Context, q string, dest []any, args ...any) error {
	ctx, cancel := c.bound(ctx)
	defer cancel()
	return fail(ctx, c.DB.QueryRowContext(ctx, c.Dialect.Rebind(q), args...).Scan(dest...))
}

// fail classifies err, reporting any failure after the round trip's
// deadline passed as ErrTimeout whatever the driver returned.
func fail(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return classify(err)
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func fromNullTime(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	t := n.Time.UTC()
	return &t
}

func fromNullString(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	s := n.String
	return &s
}
