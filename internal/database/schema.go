package database

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/travel-booking-core/internal/pricing"
)

// detailTables are the reservation detail tables.  They share one column
// set so that the generic detail repository can address any of them.
var detailTables = []string{
	"reservation_airport",
	"reservation_cruise",
	"reservation_cruise_car",
	"reservation_car_sht",
	"reservation_hotel",
	"reservation_rentcar",
	"reservation_tour",
}

var serviceTables = []string{"room", "car", "airport", "hotel", "rentcar", "tour"}

// Statements returns the DDL creating every table used by the service.
// The statements are portable between MySQL and Postgres.
func Statements() []string {
	var out []string
	names := make([]string, 0, len(pricing.Tables))
	for name := range pricing.Tables {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, table := range names {
		cols := ""
		for _, a := range pricing.Tables[table].Chain {
			cols += fmt.Sprintf("\t%s VARCHAR(128) NULL,\n", a)
		}
		out = append(out, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	code VARCHAR(64) NOT NULL,
	price BIGINT NOT NULL DEFAULT 0,
%s	start_date DATE NULL,
	end_date DATE NULL
)`, table, cols))
	}
	out = append(out, `CREATE TABLE IF NOT EXISTS quote (
	id VARCHAR(36) PRIMARY KEY,
	user_id VARCHAR(36) NOT NULL,
	title VARCHAR(255) NOT NULL DEFAULT '',
	status VARCHAR(32) NOT NULL DEFAULT 'draft',
	total_price BIGINT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`)
	out = append(out, `CREATE TABLE IF NOT EXISTS quote_item (
	id VARCHAR(36) PRIMARY KEY,
	quote_id VARCHAR(36) NOT NULL,
	service_type VARCHAR(16) NOT NULL,
	service_ref_id VARCHAR(36) NOT NULL,
	quantity INT NOT NULL DEFAULT 1,
	unit_price BIGINT NOT NULL DEFAULT 0,
	total_price BIGINT NULL,
	usage_date DATE NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`)
	for _, t := range serviceTables {
		out = append(out, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id VARCHAR(36) PRIMARY KEY,
	price_code VARCHAR(64) NOT NULL,
	category VARCHAR(128) NOT NULL DEFAULT '',
	usage_date DATE NULL,
	person_count INT NOT NULL DEFAULT 0,
	passenger_count INT NOT NULL DEFAULT 0,
	vehicle_count INT NOT NULL DEFAULT 0,
	location VARCHAR(255) NOT NULL DEFAULT '',
	flight_number VARCHAR(32) NOT NULL DEFAULT '',
	special_requests TEXT NULL
)`, t))
	}
	out = append(out, `CREATE TABLE IF NOT EXISTS reservation (
	re_id VARCHAR(36) PRIMARY KEY,
	re_user_id VARCHAR(36) NOT NULL,
	re_quote_id VARCHAR(36) NOT NULL,
	re_type VARCHAR(32) NOT NULL,
	re_status VARCHAR(32) NOT NULL DEFAULT 'pending',
	re_created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	CONSTRAINT uq_reservation_user_quote_type UNIQUE (re_user_id, re_quote_id, re_type)
)`)
	for _, t := range detailTables {
		out = append(out, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id VARCHAR(36) PRIMARY KEY,
	reservation_id VARCHAR(36) NOT NULL,
	price_code VARCHAR(64) NOT NULL,
	quantity INT NOT NULL DEFAULT 1,
	unit_price BIGINT NOT NULL DEFAULT 0,
	total_price BIGINT NOT NULL DEFAULT 0,
	usage_date DATE NULL,
	passenger_count INT NOT NULL DEFAULT 0,
	vehicle_count INT NOT NULL DEFAULT 0,
	location VARCHAR(255) NOT NULL DEFAULT '',
	note TEXT NULL
)`, t))
	}
	return out
}

// EnsureSchema creates missing tables.  Existing tables are left as they
// are; column changes need a real migration.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range Statements() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	logrus.WithField("component", "database").Infof("schema ensured (%d statements)", len(Statements()))
	return nil
}

// DetailTables returns the names of the reservation detail tables.
func DetailTables() []string { return append([]string(nil), detailTables...) }
