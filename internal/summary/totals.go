package summary

import "github.com/iliyamo/travel-booking-core/internal/model"

// SumBySection totals line items per service type and overall.  Items
// without a stored total contribute zero.
func SumBySection(items []model.LineItem) (map[model.ServiceType]int64, int64) {
	per := make(map[model.ServiceType]int64)
	var grand int64
	for _, it := range items {
		per[it.ServiceType] += it.TotalPrice
		grand += it.TotalPrice
	}
	return per, grand
}

// GrandTotal reconciles the denormalised quote total with the live sum of
// its items: the larger of the two is presented.
func GrandTotal(denormalised, live int64) int64 {
	if denormalised > live {
		return denormalised
	}
	return live
}
