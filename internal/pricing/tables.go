package pricing

import "fmt"

// Table describes one price catalog table: its name, the ordered chain of
// categorical attributes a user narrows through and whether rows carry a
// start_date/end_date validity window.
type Table struct {
	Name       string
	Chain      []string
	DateScoped bool
}

// Catalog table names.
const (
	AirportPrice = "airport_price"
	RoomPrice    = "room_price"
	CarPrice     = "car_price"
	HotelPrice   = "hotel_price"
	RentPrice    = "rent_price"
	TourPrice    = "tour_price"
)

// Tables is the closed registry of catalog tables.  Query builders only
// accept attribute names listed here.
var Tables = map[string]Table{
	AirportPrice: {Name: AirportPrice, Chain: []string{"airport_category", "airport_route", "airport_car_type"}},
	RoomPrice:    {Name: RoomPrice, Chain: []string{"schedule", "cruise", "room_type", "room_category"}, DateScoped: true},
	CarPrice:     {Name: CarPrice, Chain: []string{"schedule", "cruise", "car_type", "car_category"}, DateScoped: true},
	HotelPrice:   {Name: HotelPrice, Chain: []string{"hotel_name", "room_name", "room_type"}, DateScoped: true},
	RentPrice:    {Name: RentPrice, Chain: []string{"rent_type", "rent_category", "rent_route", "rent_car_type"}},
	TourPrice:    {Name: TourPrice, Chain: []string{"tour_name", "tour_capacity", "tour_vehicle", "tour_type"}},
}

// LookupTable returns the registered table or an error for unknown names.
func LookupTable(name string) (Table, error) {
	t, ok := Tables[name]
	if !ok {
		return Table{}, fmt.Errorf("%w: %q", ErrUnknownTable, name)
	}
	return t, nil
}

// HasAttr reports whether attr belongs to the table's chain.
func (t Table) HasAttr(attr string) bool {
	for _, a := range t.Chain {
		if a == attr {
			return true
		}
	}
	return false
}
