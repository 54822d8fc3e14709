package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/travel-booking-core/internal/model"
	"github.com/iliyamo/travel-booking-core/internal/pricing"
)

// PriceSource reads the current price of a resolved code.  *pricing.Resolver
// implements it.
type PriceSource interface {
	Price(ctx context.Context, table, code string) (model.PriceEntry, error)
}

// serviceTables maps a service type to the catalog table pricing it.
var serviceTables = map[model.ServiceType]string{
	model.ServiceAirport: pricing.AirportPrice,
	model.ServiceRoom:    pricing.RoomPrice,
	model.ServiceCar:     pricing.CarPrice,
	model.ServiceHotel:   pricing.HotelPrice,
	model.ServiceRentcar: pricing.RentPrice,
	model.ServiceTour:    pricing.TourPrice,
}

// CatalogTable returns the catalog table of a service type.
func CatalogTable(st model.ServiceType) (string, bool) {
	t, ok := serviceTables[st]
	return t, ok
}

// Leg is one resolved catalog code together with the service it prices.
type Leg struct {
	ServiceType model.ServiceType
	Code        string
	Category    string
}

// Form holds the user-entered fields of one addition.
type Form struct {
	Quantity        int
	UsageDate       *time.Time
	PersonCount     int
	PassengerCount  int
	VehicleCount    int
	Location        string
	FlightNumber    string
	SpecialRequests *string
}

// AirportLeg is one direction of an airport transfer.
type AirportLeg struct {
	Code         string
	UsageDate    *time.Time
	Location     string
	FlightNumber string
}

// RoomRow is one category row under a room type, e.g. adults or children.
type RoomRow struct {
	Code        string
	Category    string
	PersonCount int
}

// CarForm holds the fields of a cruise car booking.
type CarForm struct {
	UsageDate       *time.Time
	PassengerCount  int
	VehicleCount    int
	Location        string
	SpecialRequests *string
}

// Materializer builds the records to persist from resolved codes.  Prices
// are read from the catalog at materialisation time, never taken from the
// caller.  It performs no writes.
type Materializer struct {
	prices  PriceSource
	shuttle ShuttleRules
}

// NewMaterializer returns a Materializer pricing through p and classifying
// car types with rules.
func NewMaterializer(p PriceSource, rules ShuttleRules) *Materializer {
	return &Materializer{prices: p, shuttle: rules}
}

// QuoteAddition materialises a single leg.
func (m *Materializer) QuoteAddition(ctx context.Context, leg Leg, form Form) (Addition, error) {
	verr := &ValidationError{}
	table, ok := serviceTables[leg.ServiceType]
	if !ok {
		verr.add("service_type", fmt.Sprintf("unknown service type %q", leg.ServiceType))
	}
	if strings.TrimSpace(leg.Code) == "" {
		verr.add("code", "selection incomplete")
	}
	if form.Quantity < 0 {
		verr.add("quantity", "must not be negative")
	}
	if err := verr.orNil(); err != nil {
		return Addition{}, err
	}
	return m.price(ctx, table, leg, form)
}

func (m *Materializer) price(ctx context.Context, table string, leg Leg, form Form) (Addition, error) {
	entry, err := m.prices.Price(ctx, table, leg.Code)
	if err != nil {
		return Addition{}, fmt.Errorf("price %s %s: %w", table, leg.Code, err)
	}
	svc := model.ServiceRecord{
		ServiceType:     leg.ServiceType,
		PriceCode:       entry.Code,
		Category:        leg.Category,
		UsageDate:       form.UsageDate,
		PersonCount:     form.PersonCount,
		PassengerCount:  form.PassengerCount,
		VehicleCount:    form.VehicleCount,
		Location:        form.Location,
		FlightNumber:    form.FlightNumber,
		SpecialRequests: form.SpecialRequests,
	}
	return Addition{
		Service: svc,
		Item:    NewLineItemDraft(leg.ServiceType, form.Quantity, entry.Price, form.UsageDate),
	}, nil
}

// AirportAdditions materialises one pair per leg of an apply type.  Each
// leg carries one passenger.  Only the first leg keeps the special
// requests; later legs get none.
func (m *Materializer) AirportAdditions(ctx context.Context, apply pricing.ApplyType, legs []AirportLeg, requests *string) ([]Addition, error) {
	verr := &ValidationError{}
	cats, err := pricing.LegCategories(apply)
	if err != nil {
		verr.add("apply_type", err.Error())
		return nil, verr
	}
	if len(legs) != len(cats) {
		verr.add("legs", fmt.Sprintf("expected %d legs for %s, got %d", len(cats), apply, len(legs)))
	}
	for i, l := range legs {
		if strings.TrimSpace(l.Code) == "" {
			verr.add(fmt.Sprintf("legs[%d].code", i), "selection incomplete")
		}
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	out := make([]Addition, 0, len(legs))
	for i, l := range legs {
		form := Form{
			Quantity:       1,
			UsageDate:      l.UsageDate,
			PassengerCount: 1,
			Location:       l.Location,
			FlightNumber:   l.FlightNumber,
		}
		if i == 0 {
			form.SpecialRequests = requests
		}
		add, err := m.price(ctx, pricing.AirportPrice, Leg{ServiceType: model.ServiceAirport, Code: l.Code, Category: cats[i]}, form)
		if err != nil {
			return nil, fmt.Errorf("leg %d: %w", i, err)
		}
		out = append(out, add)
	}
	return out, nil
}

// RoomAdditions materialises one pair per category row; the quantity of a
// row is its person count.  Rows with no persons are skipped.
func (m *Materializer) RoomAdditions(ctx context.Context, rows []RoomRow, usage *time.Time, requests *string) ([]Addition, error) {
	verr := &ValidationError{}
	if usage == nil {
		verr.add("usage_date", "required")
	}
	booked := 0
	for i, r := range rows {
		switch {
		case r.PersonCount < 0:
			verr.add(fmt.Sprintf("rows[%d].person_count", i), "must not be negative")
		case r.PersonCount == 0:
			continue
		case strings.TrimSpace(r.Code) == "":
			verr.add(fmt.Sprintf("rows[%d].code", i), "selection incomplete")
		}
		booked++
	}
	if booked == 0 {
		verr.add("rows", "at least one row with persons is required")
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	out := make([]Addition, 0, booked)
	for i, r := range rows {
		if r.PersonCount == 0 {
			continue
		}
		add, err := m.price(ctx, pricing.RoomPrice, Leg{ServiceType: model.ServiceRoom, Code: r.Code, Category: r.Category}, Form{
			Quantity:        r.PersonCount,
			UsageDate:       usage,
			PersonCount:     r.PersonCount,
			SpecialRequests: requests,
		})
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out = append(out, add)
	}
	return out, nil
}

// CarAddition materialises a cruise car booking.  Shuttle car types are
// priced per passenger, everything else per vehicle.
func (m *Materializer) CarAddition(ctx context.Context, code, carType string, form CarForm) (Addition, error) {
	verr := &ValidationError{}
	if strings.TrimSpace(code) == "" {
		verr.add("code", "selection incomplete")
	}
	if form.PassengerCount < 0 {
		verr.add("passenger_count", "must not be negative")
	}
	if form.VehicleCount < 0 {
		verr.add("vehicle_count", "must not be negative")
	}
	if err := verr.orNil(); err != nil {
		return Addition{}, err
	}
	return m.price(ctx, pricing.CarPrice, Leg{ServiceType: model.ServiceCar, Code: code, Category: carType}, Form{
		Quantity:        m.shuttle.Quantity(carType, form.PassengerCount, form.VehicleCount),
		UsageDate:       form.UsageDate,
		PassengerCount:  form.PassengerCount,
		VehicleCount:    form.VehicleCount,
		Location:        form.Location,
		SpecialRequests: form.SpecialRequests,
	})
}

// ReservationDetails validates and prices the detail rows of a reservation
// of type typ.  Validation covers every row before the first price read.
func (m *Materializer) ReservationDetails(ctx context.Context, typ string, drafts []DetailDraft) ([]model.ReservationDetail, error) {
	verr := &ValidationError{}
	if !ValidType(typ) {
		verr.add("type", fmt.Sprintf("unknown reservation type %q", typ))
	}
	if len(drafts) == 0 {
		verr.add("details", "at least one detail row is required")
	}
	for i, d := range drafts {
		field := fmt.Sprintf("details[%d]", i)
		if ValidType(typ) && !kindAllowed(typ, d.Kind) {
			verr.add(field+".kind", fmt.Sprintf("%q not allowed for %s", d.Kind, typ))
		}
		if strings.TrimSpace(d.PriceCode) == "" {
			verr.add(field+".price_code", "selection incomplete")
		}
		if d.Quantity < 0 || d.PassengerCount < 0 || d.VehicleCount < 0 {
			verr.add(field, "counts must not be negative")
		}
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	out := make([]model.ReservationDetail, 0, len(drafts))
	for i, d := range drafts {
		table := kindTables[d.Kind]
		entry, err := m.prices.Price(ctx, table, d.PriceCode)
		if err != nil {
			return nil, fmt.Errorf("details[%d] price %s %s: %w", i, table, d.PriceCode, err)
		}
		qty := d.Quantity
		if isCarKind(d.Kind) {
			qty = m.shuttle.Quantity(d.CarType, d.PassengerCount, d.VehicleCount)
		}
		out = append(out, model.ReservationDetail{
			Kind:           d.Kind,
			PriceCode:      entry.Code,
			Quantity:       qty,
			UnitPrice:      entry.Price,
			TotalPrice:     int64(qty) * entry.Price,
			UsageDate:      d.UsageDate,
			PassengerCount: d.PassengerCount,
			VehicleCount:   d.VehicleCount,
			Location:       d.Location,
			Note:           d.Note,
		})
	}
	return out, nil
}
