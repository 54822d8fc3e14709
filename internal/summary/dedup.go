// Package summary turns persisted line items, service records and
// reservation details back into the deduplicated view shown to users.
package summary

import "github.com/iliyamo/travel-booking-core/internal/model"

// Row is one presentable line: a priced entity with its quantities and
// totals.  Occurrences counts how many source records were merged into it;
// a zero value counts as one.
type Row struct {
	Key            string            `json:"key"`
	ServiceType    model.ServiceType `json:"service_type"`
	PriceCode      string            `json:"price_code"`
	Category       string            `json:"category,omitempty"`
	Quantity       int               `json:"quantity"`
	PersonCount    int               `json:"person_count"`
	PassengerCount int               `json:"passenger_count"`
	VehicleCount   int               `json:"vehicle_count"`
	UnitPrice      int64             `json:"unit_price"`
	TotalPrice     int64             `json:"total_price"`
	Occurrences    int               `json:"occurrences"`
}

func (r Row) occurrences() int {
	if r.Occurrences < 1 {
		return 1
	}
	return r.Occurrences
}

// ByPriceCode keys rows by service type and price code.
func ByPriceCode(r Row) string { return string(r.ServiceType) + ":" + r.PriceCode }

// DeduplicateByKey merges rows sharing a key.  Quantity-like fields,
// TotalPrice and Occurrences are summed; descriptive fields and UnitPrice
// come from the first row of each key.  Output keeps first-seen order.
// Applying it to its own output is a no-op and totals are conserved.
func DeduplicateByKey(rows []Row, key func(Row) string) []Row {
	index := make(map[string]int, len(rows))
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		k := key(r)
		i, ok := index[k]
		if !ok {
			r.Key = k
			r.Occurrences = r.occurrences()
			index[k] = len(out)
			out = append(out, r)
			continue
		}
		m := &out[i]
		m.Quantity += r.Quantity
		m.PersonCount += r.PersonCount
		m.PassengerCount += r.PassengerCount
		m.VehicleCount += r.VehicleCount
		m.TotalPrice += r.TotalPrice
		m.Occurrences += r.occurrences()
	}
	return out
}

// FirstByKey keeps the first element per key.  BuildQuote uses it for the
// catalog rows shown next to a quote, which carry no quantities to sum.
func FirstByKey[T any](rows []T, key func(T) string) []T {
	seen := make(map[string]struct{}, len(rows))
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		k := key(r)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}

// CatalogKey identifies a catalog row for context display: code plus the
// cruise, type and schedule attributes when present.
func CatalogKey(p model.PriceEntry) string {
	return p.Table + "|" + p.Code + "|" + p.Attr("cruise") + "|" + p.Attr("room_type") + p.Attr("car_type") + "|" + p.Attr("schedule")
}
