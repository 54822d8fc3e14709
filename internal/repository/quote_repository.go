package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/travel-booking-core/internal/model"
)

// QuoteRepo provides CRUD operations for quotes and their items.  Items are
// stored in the quote_item table and reference service records through
// (service_type, service_ref_id).
type QuoteRepo struct {
	c Conn
}

// NewQuoteRepo returns a new QuoteRepo bound to the given connection.
func NewQuoteRepo(c Conn) *QuoteRepo { return &QuoteRepo{c: c} }

const quoteCols = `id, user_id, title, status, total_price, created_at`

func scanQuote(dest func(...any) error) (*model.Quote, error) {
	var q model.Quote
	var total sql.NullInt64
	if err := dest(&q.ID, &q.UserID, &q.Title, &q.Status, &total, &q.CreatedAt); err != nil {
		return nil, err
	}
	q.TotalPrice = total.Int64
	return &q, nil
}

// GetByID returns the quote with id or ErrNotFound.
func (r *QuoteRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Quote, error) {
	var q model.Quote
	var total sql.NullInt64
	err := r.c.queryRow(ctx, `SELECT `+quoteCols+` FROM quote WHERE id = ?`,
		[]any{&q.ID, &q.UserID, &q.Title, &q.Status, &total, &q.CreatedAt}, id)
	if err != nil {
		return nil, err
	}
	q.TotalPrice = total.Int64
	return &q, nil
}

// LatestDraft returns the most recent draft quote of a user or ErrNotFound.
func (r *QuoteRepo) LatestDraft(ctx context.Context, userID uuid.UUID) (*model.Quote, error) {
	var out *model.Quote
	err := r.c.query(ctx, `SELECT `+quoteCols+` FROM quote
		WHERE user_id = ? AND status = ?
		ORDER BY created_at DESC
		LIMIT 1`, func(rows *sql.Rows) error {
		q, err := scanQuote(rows.Scan)
		if err != nil {
			return err
		}
		out = q
		return nil
	}, userID, model.QuoteDraft)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, ErrNotFound
	}
	return out, nil
}

// Create inserts q.  A zero ID is replaced by a fresh UUID and a zero
// CreatedAt by the current time.
func (r *QuoteRepo) Create(ctx context.Context, q *model.Quote) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}
	_, err := r.c.exec(ctx, `INSERT INTO quote (id, user_id, title, status, total_price, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		q.ID, q.UserID, q.Title, q.Status, q.TotalPrice, q.CreatedAt)
	return err
}

// UpdateStatus sets the status and denormalised total of a quote.
func (r *QuoteRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string, total int64) error {
	res, err := r.c.exec(ctx, `UPDATE quote SET status = ?, total_price = ? WHERE id = ?`, status, total, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertItem inserts a quote_item row.
func (r *QuoteRepo) InsertItem(ctx context.Context, it *model.LineItem) error {
	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	if it.CreatedAt.IsZero() {
		it.CreatedAt = time.Now().UTC()
	}
	_, err := r.c.exec(ctx, `INSERT INTO quote_item
		(id, quote_id, service_type, service_ref_id, quantity, unit_price, total_price, usage_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		it.ID, it.QuoteID, string(it.ServiceType), it.ServiceRefID, it.Quantity, it.UnitPrice, it.TotalPrice,
		nullTime(it.UsageDate), it.CreatedAt)
	return err
}

// ListItems returns the items of a quote in creation order.  A NULL
// total_price is read as zero.
func (r *QuoteRepo) ListItems(ctx context.Context, quoteID uuid.UUID) ([]model.LineItem, error) {
	out := []model.LineItem{}
	err := r.c.query(ctx, `SELECT id, quote_id, service_type, service_ref_id, quantity, unit_price, total_price, usage_date, created_at
		FROM quote_item WHERE quote_id = ? ORDER BY created_at, id`, func(rows *sql.Rows) error {
		var it model.LineItem
		var st string
		var total sql.NullInt64
		var usage sql.NullTime
		if err := rows.Scan(&it.ID, &it.QuoteID, &st, &it.ServiceRefID, &it.Quantity, &it.UnitPrice, &total, &usage, &it.CreatedAt); err != nil {
			return err
		}
		it.ServiceType = model.ServiceType(st)
		it.TotalPrice = total.Int64
		it.UsageDate = fromNullTime(usage)
		out = append(out, it)
		return nil
	}, quoteID)
	if err != nil {
		return nil, err
	}
	return out, nil
}
