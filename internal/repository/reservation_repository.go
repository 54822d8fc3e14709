package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/travel-booking-core/internal/database"
	"github.com/iliyamo/travel-booking-core/internal/model"
)

// ReservationRepo provides CRUD operations for reservations and their
// detail rows.  A reservation is unique per (user, quote, type); the
// schema enforces this with uq_reservation_user_quote_type.  Detail rows
// live in one table per kind (reservation_airport, reservation_cruise, ...).
type ReservationRepo struct {
	c Conn
}

// NewReservationRepo returns a new ReservationRepo bound to the given connection.
func NewReservationRepo(c Conn) *ReservationRepo { return &ReservationRepo{c: c} }

const reservationCols = `re_id, re_user_id, re_quote_id, re_type, re_status, re_created_at`

func detailTable(kind string) (string, error) {
	for _, t := range database.DetailTables() {
		if t == kind {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown reservation detail kind %q", kind)
}

// FindByUserQuoteType returns the reservation of a user for a quote and
// type, or ErrNotFound.
func (r *ReservationRepo) FindByUserQuoteType(ctx context.Context, userID, quoteID uuid.UUID, typ string) (*model.Reservation, error) {
	var res model.Reservation
	err := r.c.queryRow(ctx, `SELECT `+reservationCols+` FROM reservation
		WHERE re_user_id = ? AND re_quote_id = ? AND re_type = ?`,
		[]any{&res.ID, &res.UserID, &res.QuoteID, &res.Type, &res.Status, &res.CreatedAt},
		userID, quoteID, typ)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// GetByID returns a reservation or ErrNotFound.
func (r *ReservationRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Reservation, error) {
	var res model.Reservation
	err := r.c.queryRow(ctx, `SELECT `+reservationCols+` FROM reservation WHERE re_id = ?`,
		[]any{&res.ID, &res.UserID, &res.QuoteID, &res.Type, &res.Status, &res.CreatedAt}, id)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Create inserts res.  It returns ErrDuplicate when a reservation for the
// same (user, quote, type) already exists.
func (r *ReservationRepo) Create(ctx context.Context, res *model.Reservation) error {
	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}
	if res.CreatedAt.IsZero() {
		res.CreatedAt = time.Now().UTC()
	}
	_, err := r.c.exec(ctx, `INSERT INTO reservation (`+reservationCols+`) VALUES (?, ?, ?, ?, ?, ?)`,
		res.ID, res.UserID, res.QuoteID, res.Type, res.Status, res.CreatedAt)
	return err
}

// UpdateStatus sets the status of a reservation.
func (r *ReservationRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	res, err := r.c.exec(ctx, `UPDATE reservation SET re_status = ? WHERE re_id = ?`, status, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteDetails removes every detail row of a reservation from all detail
// tables.  It stops at the first failing table.
func (r *ReservationRepo) DeleteDetails(ctx context.Context, reservationID uuid.UUID) error {
	for _, t := range database.DetailTables() {
		if _, err := r.c.exec(ctx, `DELETE FROM `+t+` WHERE reservation_id = ?`, reservationID); err != nil {
			return fmt.Errorf("delete %s: %w", t, err)
		}
	}
	return nil
}

// InsertDetail writes one detail row into the table named by d.Kind.
func (r *ReservationRepo) InsertDetail(ctx context.Context, d *model.ReservationDetail) error {
	table, err := detailTable(d.Kind)
	if err != nil {
		return err
	}
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	_, err = r.c.exec(ctx, `INSERT INTO `+table+`
		(id, reservation_id, price_code, quantity, unit_price, total_price, usage_date, passenger_count, vehicle_count, location, note)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.ReservationID, d.PriceCode, d.Quantity, d.UnitPrice, d.TotalPrice, nullTime(d.UsageDate),
		d.PassengerCount, d.VehicleCount, d.Location, nullString(d.Note))
	return err
}

// ListDetails returns the detail rows of a reservation across all kinds,
// grouped by kind in DetailTables order.
func (r *ReservationRepo) ListDetails(ctx context.Context, reservationID uuid.UUID) ([]model.ReservationDetail, error) {
	out := []model.ReservationDetail{}
	for _, t := range database.DetailTables() {
		kind := t
		err := r.c.query(ctx, `SELECT id, reservation_id, price_code, quantity, unit_price, total_price, usage_date,
			passenger_count, vehicle_count, location, note FROM `+kind+` WHERE reservation_id = ? ORDER BY id`,
			func(rows *sql.Rows) error {
				d := model.ReservationDetail{Kind: kind}
				var usage sql.NullTime
				var note sql.NullString
				if err := rows.Scan(&d.ID, &d.ReservationID, &d.PriceCode, &d.Quantity, &d.UnitPrice, &d.TotalPrice, &usage,
					&d.PassengerCount, &d.VehicleCount, &d.Location, &note); err != nil {
					return err
				}
				d.UsageDate = fromNullTime(usage)
				d.Note = fromNullString(note)
				out = append(out, d)
				return nil
			}, reservationID)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", kind, err)
		}
	}
	return out, nil
}

// List returns one page of reservations matching f, newest first, and the
// total number of matches.
func (r *ReservationRepo) List(ctx context.Context, f model.ReservationFilter) ([]model.Reservation, int64, error) {
	where := []string{}
	args := []any{}
	if f.Status != "" {
		where = append(where, "re_status = ?")
		args = append(args, f.Status)
	}
	if f.Type != "" {
		where = append(where, "re_type = ?")
		args = append(args, f.Type)
	}
	if f.UserID != uuid.Nil {
		where = append(where, "re_user_id = ?")
		args = append(args, f.UserID)
	}
	if f.QuoteID != uuid.Nil {
		where = append(where, "re_quote_id = ?")
		args = append(args, f.QuoteID)
	}
	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	if err := r.c.queryRow(ctx, `SELECT COUNT(*) FROM reservation WHERE `+cond, []any{&total}, args...); err != nil {
		return nil, 0, err
	}

	limit, offset := pageBounds(f.Page, f.PageSize)
	out := make([]model.Reservation, 0, limit)
	err := r.c.query(ctx, `SELECT `+reservationCols+` FROM reservation WHERE `+cond+`
		ORDER BY re_created_at DESC, re_id LIMIT ? OFFSET ?`,
		func(rows *sql.Rows) error {
			var res model.Reservation
			if err := rows.Scan(&res.ID, &res.UserID, &res.QuoteID, &res.Type, &res.Status, &res.CreatedAt); err != nil {
				return err
			}
			out = append(out, res)
			return nil
		}, append(append([]any{}, args...), limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// pageBounds clamps a 1-based page and its size (default 20, max 100) to
// LIMIT/OFFSET values.
func pageBounds(page, size int) (int, int) {
	if size <= 0 {
		size = 20
	}
	if size > 100 {
		size = 100
	}
	if page < 1 {
		page = 1
	}
	return size, (page - 1) * size
}
