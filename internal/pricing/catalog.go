package pricing

import (
	"context"
	"time"

	"github.com/iliyamo/travel-booking-core/internal/model"
)

// Query is the read request sent to a price catalog.  Equals pins
// attribute columns to exact values; OnDate, when set on a date-scoped
// table, keeps only rows whose validity window contains the date.
type Query struct {
	Table   string
	Equals  map[string]string
	OnDate  *time.Time
	OrderBy string
}

// Catalog is the read-only view of the price tables used by the resolver.
// Implementations must not cache; the catalog is maintained elsewhere.
type Catalog interface {
	Query(ctx context.Context, q Query) ([]model.PriceEntry, error)
	// ByCode returns every row of table carrying code.
	ByCode(ctx context.Context, table, code string) ([]model.PriceEntry, error)
}
