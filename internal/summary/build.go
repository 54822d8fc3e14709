package summary

import (
	"github.com/google/uuid"

	"github.com/iliyamo/travel-booking-core/internal/model"
)

// Section groups the rows of one service type.
type Section struct {
	ServiceType model.ServiceType `json:"service_type"`
	Rows        []Row             `json:"rows"`
	Total       int64             `json:"total"`
}

// QuoteSummary is the presented view of a quote.
type QuoteSummary struct {
	QuoteID     uuid.UUID `json:"quote_id"`
	Title       string    `json:"title"`
	Status      string    `json:"status"`
	Sections    []Section `json:"sections"`
	LiveTotal   int64     `json:"live_total"`
	StoredTotal int64     `json:"stored_total"`
	GrandTotal  int64     `json:"grand_total"`
	ItemCount   int       `json:"item_count"`
	MissingRefs int       `json:"missing_refs,omitempty"`
	// Catalog lists the price rows behind the quoted codes, once each.
	Catalog []CatalogRow `json:"catalog,omitempty"`
}

// CatalogRow is a catalog entry shown next to a quote for reference.
type CatalogRow struct {
	Table string            `json:"table"`
	Code  string            `json:"code"`
	Price int64             `json:"price"`
	Attrs map[string]string `json:"attrs,omitempty"`
}

// RowsFromItems joins line items with their service records.  Items whose
// service record is missing still produce a row keyed by the item id so
// that their price is not lost.
func RowsFromItems(items []model.LineItem, services []model.ServiceRecord) ([]Row, int) {
	byID := make(map[uuid.UUID]model.ServiceRecord, len(services))
	for _, s := range services {
		byID[s.ID] = s
	}
	missing := 0
	rows := make([]Row, 0, len(items))
	for _, it := range items {
		r := Row{
			ServiceType: it.ServiceType,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			TotalPrice:  it.TotalPrice,
		}
		if s, ok := byID[it.ServiceRefID]; ok && s.ServiceType == it.ServiceType {
			r.PriceCode = s.PriceCode
			r.Category = s.Category
			r.PersonCount = s.PersonCount
			r.PassengerCount = s.PassengerCount
			r.VehicleCount = s.VehicleCount
		} else {
			missing++
			r.PriceCode = "item:" + it.ID.String()
		}
		rows = append(rows, r)
	}
	return rows, missing
}

// BuildQuote produces the deduplicated per-section view of a quote.
// catalog holds the price rows of the quoted codes; repeats are dropped.
func BuildQuote(q model.Quote, items []model.LineItem, services []model.ServiceRecord, catalog []model.PriceEntry) QuoteSummary {
	rows, missing := RowsFromItems(items, services)
	merged := DeduplicateByKey(rows, ByPriceCode)
	per, live := SumBySection(items)

	out := QuoteSummary{
		QuoteID:     q.ID,
		Title:       q.Title,
		Status:      q.Status,
		LiveTotal:   live,
		StoredTotal: q.TotalPrice,
		GrandTotal:  GrandTotal(q.TotalPrice, live),
		ItemCount:   len(items),
		MissingRefs: missing,
	}
	for _, t := range model.ServiceTypes {
		var sec []Row
		for _, r := range merged {
			if r.ServiceType == t {
				sec = append(sec, r)
			}
		}
		if len(sec) == 0 {
			continue
		}
		out.Sections = append(out.Sections, Section{ServiceType: t, Rows: sec, Total: per[t]})
	}
	for _, p := range FirstByKey(catalog, CatalogKey) {
		out.Catalog = append(out.Catalog, CatalogRow{Table: p.Table, Code: p.Code, Price: p.Price, Attrs: p.Attrs})
	}
	return out
}

// ReservationSummary is the presented view of one reservation.
type ReservationSummary struct {
	Reservation model.Reservation `json:"reservation"`
	Rows        []Row             `json:"rows"`
	Total       int64             `json:"total"`
}

// BuildReservation merges a reservation's detail rows by kind and code.
func BuildReservation(res model.Reservation, details []model.ReservationDetail) ReservationSummary {
	rows := make([]Row, 0, len(details))
	var total int64
	for _, d := range details {
		rows = append(rows, Row{
			Category:       d.Kind,
			PriceCode:      d.PriceCode,
			Quantity:       d.Quantity,
			PassengerCount: d.PassengerCount,
			VehicleCount:   d.VehicleCount,
			UnitPrice:      d.UnitPrice,
			TotalPrice:     d.TotalPrice,
		})
		total += d.TotalPrice
	}
	merged := DeduplicateByKey(rows, func(r Row) string { return r.Category + ":" + r.PriceCode })
	return ReservationSummary{Reservation: res, Rows: merged, Total: total}
}
