package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/iliyamo/travel-booking-core/internal/model"
	"github.com/iliyamo/travel-booking-core/internal/pricing"
)

// CatalogRepo reads the price tables.  Table and column names come only
// from the pricing registry; values are always bound as arguments.
type CatalogRepo struct {
	c Conn
}

// NewCatalogRepo returns a CatalogRepo bound to c.
func NewCatalogRepo(c Conn) *CatalogRepo { return &CatalogRepo{c: c} }

// Query returns the rows of q.Table matching every equality filter and,
// when OnDate is set, whose validity window contains the date.
func (r *CatalogRepo) Query(ctx context.Context, q pricing.Query) ([]model.PriceEntry, error) {
	t, err := pricing.LookupTable(q.Table)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(q.Equals))
	for k := range q.Equals {
		if !t.HasAttr(k) {
			return nil, fmt.Errorf("%w: %s.%s", pricing.ErrUnknownAttribute, t.Name, k)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	where := []string{}
	args := []any{}
	for _, k := range keys {
		where = append(where, k+" = ?")
		args = append(args, q.Equals[k])
	}
	if q.OnDate != nil && t.DateScoped {
		where = append(where, "(start_date IS NULL OR start_date <= ?)", "(end_date IS NULL OR end_date >= ?)")
		d := q.OnDate.UTC().Format(pricing.DateLayout)
		args = append(args, d, d)
	}
	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}
	order := "code"
	if q.OrderBy != "" && t.HasAttr(q.OrderBy) {
		order = q.OrderBy + ", code"
	}
	stmt := "SELECT " + selectCols(t) + " FROM " + t.Name + " WHERE " + cond + " ORDER BY " + order
	return r.scan(ctx, t, stmt, args...)
}

// ByCode returns every row of table carrying code.
func (r *CatalogRepo) ByCode(ctx context.Context, table, code string) ([]model.PriceEntry, error) {
	t, err := pricing.LookupTable(table)
	if err != nil {
		return nil, err
	}
	stmt := "SELECT " + selectCols(t) + " FROM " + t.Name + " WHERE code = ?"
	return r.scan(ctx, t, stmt, code)
}

func selectCols(t pricing.Table) string {
	return "code, price, " + strings.Join(t.Chain, ", ") + ", start_date, end_date"
}

func (r *CatalogRepo) scan(ctx context.Context, t pricing.Table, stmt string, args ...any) ([]model.PriceEntry, error) {
	out := []model.PriceEntry{}
	err := r.c.query(ctx, stmt, func(rows *sql.Rows) error {
		e := model.PriceEntry{Table: t.Name, Attrs: make(map[string]string, len(t.Chain))}
		attrs := make([]sql.NullString, len(t.Chain))
		var start, end sql.NullTime
		dest := []any{&e.Code, &e.Price}
		for i := range attrs {
			dest = append(dest, &attrs[i])
		}
		dest = append(dest, &start, &end)
		if err := rows.Scan(dest...); err != nil {
			return err
		}
		for i, a := range t.Chain {
			if attrs[i].Valid {
				e.Attrs[a] = attrs[i].String
			}
		}
		e.StartDate = fromNullTime(start)
		e.EndDate = fromNullTime(end)
		out = append(out, e)
		return nil
	}, args...)
	if err != nil {
		return nil, err
	}
	return out, nil
}
