package booking

import "github.com/iliyamo/travel-booking-core/internal/pricing"

// Reservation types.
const (
	TypeAirport = "airport"
	TypeCruise  = "cruise"
	TypeHotel   = "hotel"
	TypeRentcar = "rentcar"
	TypeTour    = "tour"
)

// Reservation detail kinds; each names its detail table.
const (
	KindAirport   = "reservation_airport"
	KindCruise    = "reservation_cruise"
	KindCruiseCar = "reservation_cruise_car"
	KindCarSht    = "reservation_car_sht"
	KindHotel     = "reservation_hotel"
	KindRentcar   = "reservation_rentcar"
	KindTour      = "reservation_tour"
)

// kindTables maps a detail kind to the catalog table its codes come from.
var kindTables = map[string]string{
	KindAirport:   pricing.AirportPrice,
	KindCruise:    pricing.RoomPrice,
	KindCruiseCar: pricing.CarPrice,
	KindCarSht:    pricing.CarPrice,
	KindHotel:     pricing.HotelPrice,
	KindRentcar:   pricing.RentPrice,
	KindTour:      pricing.TourPrice,
}

// typeKinds lists the detail kinds a reservation type may carry.
var typeKinds = map[string][]string{
	TypeAirport: {KindAirport},
	TypeCruise:  {KindCruise, KindCruiseCar, KindCarSht},
	TypeHotel:   {KindHotel},
	TypeRentcar: {KindRentcar},
	TypeTour:    {KindTour},
}

func isCarKind(kind string) bool { return kind == KindCruiseCar || kind == KindCarSht }

func kindAllowed(typ, kind string) bool {
	for _, k := range typeKinds[typ] {
		if k == kind {
			return true
		}
	}
	return false
}

// ValidType reports whether typ is a known reservation type.
func ValidType(typ string) bool {
	_, ok := typeKinds[typ]
	return ok
}
