package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Options selects the driver and connection parameters.
type Options struct {
	Driver string // "mysql" or "postgres"
	User   string
	Pass   string
	Host   string
	Port   string
	Name   string
}

// Open connects to MySQL or Postgres and verifies the connection.  The
// returned Dialect must be used by repositories to build statements.
func Open(o Options) (*sql.DB, Dialect, error) {
	d, err := DialectFor(o.Driver)
	if err != nil {
		return nil, Dialect{}, err
	}

	var dsn string
	switch d.Name {
	case Postgres:
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(o.User, o.Pass),
			Host:     o.Host + ":" + o.Port,
			Path:     "/" + o.Name,
			RawQuery: "sslmode=prefer",
		}
		if o.Pass == "" {
			u.User = url.User(o.User)
		}
		dsn = u.String()
	default:
		auth := o.User
		if o.Pass != "" {
			auth = fmt.Sprintf("%s:%s", o.User, o.Pass)
		}
		// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
		dsn = fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
			auth, o.Host, o.Port, o.Name)
	}

	db, err := sql.Open(d.driverName(), dsn)
	if err != nil {
		return nil, Dialect{}, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, Dialect{}, err
	}
	return db, d, nil
}
