package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/travel-booking-core/internal/model"
)

// ServiceRepo stores service records.  Each service type has its own
// table (room, car, airport, hotel, rentcar, tour) with a shared column set.
type ServiceRepo struct {
	c Conn
}

// NewServiceRepo returns a ServiceRepo bound to c.
func NewServiceRepo(c Conn) *ServiceRepo { return &ServiceRepo{c: c} }

func serviceTable(t model.ServiceType) (string, error) {
	if !t.Valid() {
		return "", fmt.Errorf("unknown service type %q", t)
	}
	return t.Table(), nil
}

// Insert writes s to the table of its service type.
func (r *ServiceRepo) Insert(ctx context.Context, s *model.ServiceRecord) error {
	table, err := serviceTable(s.ServiceType)
	if err != nil {
		return err
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	_, err = r.c.exec(ctx, `INSERT INTO `+table+`
		(id, price_code, category, usage_date, person_count, passenger_count, vehicle_count, location, flight_number, special_requests)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.PriceCode, s.Category, nullTime(s.UsageDate), s.PersonCount, s.PassengerCount, s.VehicleCount,
		s.Location, s.FlightNumber, nullString(s.SpecialRequests))
	return err
}

// ListByIDs returns the records of type t with the given ids.  Missing ids
// are skipped.
func (r *ServiceRepo) ListByIDs(ctx context.Context, t model.ServiceType, ids []uuid.UUID) ([]model.ServiceRecord, error) {
	table, err := serviceTable(t)
	if err != nil {
		return nil, err
	}
	out := []model.ServiceRecord{}
	if len(ids) == 0 {
		return out, nil
	}
	marks := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	err = r.c.query(ctx, `SELECT id, price_code, category, usage_date, person_count, passenger_count, vehicle_count,
		location, flight_number, special_requests FROM `+table+` WHERE id IN (`+marks+`)`, func(rows *sql.Rows) error {
		s := model.ServiceRecord{ServiceType: t}
		var usage sql.NullTime
		var req sql.NullString
		if err := rows.Scan(&s.ID, &s.PriceCode, &s.Category, &usage, &s.PersonCount, &s.PassengerCount, &s.VehicleCount,
			&s.Location, &s.FlightNumber, &req); err != nil {
			return err
		}
		s.UsageDate = fromNullTime(usage)
		s.SpecialRequests = fromNullString(req)
		out = append(out, s)
		return nil
	}, args...)
	if err != nil {
		return nil, err
	}
	return out, nil
}
