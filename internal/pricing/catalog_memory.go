package pricing

import (
	"context"
	"sort"
	"sync"

	"github.com/iliyamo/travel-booking-core/internal/model"
)

// MemoryCatalog is an in-memory Catalog.  It is used in tests and for
// local runs without a database.
type MemoryCatalog struct {
	mu   sync.RWMutex
	rows []model.PriceEntry
}

// NewMemoryCatalog returns a catalog holding rows.
func NewMemoryCatalog(rows ...model.PriceEntry) *MemoryCatalog {
	return &MemoryCatalog{rows: append([]model.PriceEntry(nil), rows...)}
}

// Add appends a row.
func (m *MemoryCatalog) Add(rows ...model.PriceEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, rows...)
}

// SetPrice changes the price of every row of table with code.
func (m *MemoryCatalog) SetPrice(table, code string, price int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].Table == table && m.rows[i].Code == code {
			m.rows[i].Price = price
		}
	}
}

func (m *MemoryCatalog) Query(ctx context.Context, q Query) ([]model.PriceEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.PriceEntry
	for _, row := range m.rows {
		if row.Table != q.Table {
			continue
		}
		if q.OnDate != nil && !row.ValidOn(*q.OnDate) {
			continue
		}
		match := true
		for k, v := range q.Equals {
			if row.Attr(k) != v {
				match = false
				break
			}
		}
		if match {
			out = append(out, row)
		}
	}
	if q.OrderBy != "" {
		sort.SliceStable(out, func(i, j int) bool { return out[i].Attr(q.OrderBy) < out[j].Attr(q.OrderBy) })
	}
	return out, nil
}

func (m *MemoryCatalog) ByCode(ctx context.Context, table, code string) ([]model.PriceEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.PriceEntry
	for _, row := range m.rows {
		if row.Table == table && row.Code == code {
			out = append(out, row)
		}
	}
	return out, nil
}
