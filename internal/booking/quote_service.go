package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/travel-booking-core/internal/model"
	"github.com/iliyamo/travel-booking-core/internal/pricing"
	"github.com/iliyamo/travel-booking-core/internal/repository"
	"github.com/iliyamo/travel-booking-core/internal/summary"
)

// AirportLegChoice is the user's route and car type for one direction.
// The category is derived from the apply type.
type AirportLegChoice struct {
	Route        string
	CarType      string
	UsageDate    *time.Time
	Location     string
	FlightNumber string
}

// AirportRequest adds an airport transfer (one or both directions).
type AirportRequest struct {
	QuoteID         uuid.UUID
	ApplyType       pricing.ApplyType
	Legs            []AirportLegChoice
	SpecialRequests *string
}

// RoomCount is the person count entered for one room category.
type RoomCount struct {
	Category    string
	PersonCount int
}

// RoomRequest adds cruise rooms of one room type.
type RoomRequest struct {
	QuoteID         uuid.UUID
	UsageDate       *time.Time
	Schedule        string
	Cruise          string
	RoomType        string
	Rows            []RoomCount
	SpecialRequests *string
}

// CarRequest adds a cruise car.
type CarRequest struct {
	QuoteID         uuid.UUID
	UsageDate       *time.Time
	Schedule        string
	Cruise          string
	CarType         string
	CarCategory     string
	PassengerCount  int
	VehicleCount    int
	Location        string
	SpecialRequests *string
}

// ItemRequest adds a hotel, rent car or tour item.  Values carries the
// table's attribute chain.
type ItemRequest struct {
	QuoteID         uuid.UUID
	ServiceType     model.ServiceType
	Values          map[string]string
	UsageDate       *time.Time
	Quantity        int
	PersonCount     int
	PassengerCount  int
	VehicleCount    int
	Location        string
	SpecialRequests *string
}

// QuoteService owns the quote side of the pipeline: draft quotes, item
// additions, submission and the quote summary.
type QuoteService struct {
	quotes   QuoteStore
	services ServiceStore
	resolver CodeResolver
	mat      *Materializer
	log      *logrus.Logger
}

// NewQuoteService wires a QuoteService.  A nil logger selects the logrus
// standard logger.
func NewQuoteService(quotes QuoteStore, services ServiceStore, resolver CodeResolver, mat *Materializer, log *logrus.Logger) *QuoteService {
	if quotes == nil || services == nil || resolver == nil || mat == nil {
		panic("nil dependency passed to NewQuoteService")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &QuoteService{quotes: quotes, services: services, resolver: resolver, mat: mat, log: log}
}

// DraftQuote returns the user's latest draft quote, creating one when the
// user has none.
func (s *QuoteService) DraftQuote(ctx context.Context, u *User) (*model.Quote, error) {
	if err := requireUser(u); err != nil {
		return nil, err
	}
	q, err := s.quotes.LatestDraft(ctx, u.ID)
	if err == nil {
		return q, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	now := time.Now().UTC()
	q = &model.Quote{
		ID:        uuid.New(),
		UserID:    u.ID,
		Title:     now.Format(pricing.DateLayout) + " 견적",
		Status:    model.QuoteDraft,
		CreatedAt: now,
	}
	if err := s.quotes.Create(ctx, q); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"component": "quote", "quote_id": q.ID, "user_id": u.ID}).Info("draft quote created")
	return q, nil
}

// owned loads a quote and checks it belongs to u.
func (s *QuoteService) owned(ctx context.Context, u *User, id uuid.UUID) (*model.Quote, error) {
	if err := requireUser(u); err != nil {
		return nil, err
	}
	q, err := s.quotes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if q.UserID != u.ID {
		return nil, repository.ErrForbidden
	}
	return q, nil
}

func (s *QuoteService) editable(ctx context.Context, u *User, id uuid.UUID) (*model.Quote, error) {
	q, err := s.owned(ctx, u, id)
	if err != nil {
		return nil, err
	}
	if q.Status != model.QuoteDraft {
		return nil, fmt.Errorf("%w: quote is %s", repository.ErrConflict, q.Status)
	}
	return q, nil
}

// resolve maps a selection to a code.  An incomplete selection is a
// validation error; NotFound and Ambiguous surface as their error kinds.
func (s *QuoteService) resolve(ctx context.Context, table string, f pricing.Filters, field string) (string, error) {
	t, err := pricing.LookupTable(table)
	if err != nil {
		return "", err
	}
	if !t.Complete(f) {
		verr := &ValidationError{}
		for _, a := range t.Chain {
			if strings.TrimSpace(f.Values[a]) == "" {
				verr.add(field+a, "required")
			}
		}
		if t.DateScoped && f.Date == nil {
			verr.add(field+"usage_date", "required")
		}
		return "", verr
	}
	res, err := s.resolver.ResolveCode(ctx, table, f)
	if err != nil {
		return "", err
	}
	if res.Outcome != pricing.Found {
		return "", res.Err(table)
	}
	return res.Code, nil
}

// persist writes each service record and then the line item pointing at
// it.  Every pair is attempted; failed pairs come back in a
// *PartialWriteError next to the items that were written.
func (s *QuoteService) persist(ctx context.Context, q *model.Quote, adds []Addition) ([]model.LineItem, error) {
	entry := s.log.WithFields(logrus.Fields{"component": "quote", "quote_id": q.ID})
	items := make([]model.LineItem, 0, len(adds))
	var failures []RowError
	for i := range adds {
		svc := adds[i].Service
		if err := s.services.Insert(ctx, &svc); err != nil {
			failures = append(failures, RowError{Index: i, Kind: string(svc.ServiceType), Code: svc.PriceCode,
				Err: fmt.Errorf("insert %s service: %w", svc.ServiceType, err)})
			continue
		}
		it := adds[i].LineItem(q.ID, svc.ID)
		if err := s.quotes.InsertItem(ctx, &it); err != nil {
			failures = append(failures, RowError{Index: i, Kind: string(svc.ServiceType), Code: svc.PriceCode,
				Err: fmt.Errorf("insert quote item: %w", err)})
			continue
		}
		items = append(items, it)
	}
	if len(failures) > 0 {
		perr := &PartialWriteError{Written: len(items), Failures: failures}
		entry.WithError(perr).Warn("quote items partially written")
		return items, perr
	}
	entry.WithField("items", len(items)).Info("quote items added")
	return items, nil
}

// AddAirport resolves every leg of the request independently and adds one
// item per leg.
func (s *QuoteService) AddAirport(ctx context.Context, u *User, req AirportRequest) ([]model.LineItem, error) {
	q, err := s.editable(ctx, u, req.QuoteID)
	if err != nil {
		return nil, err
	}
	sels, err := pricing.AirportLegs(req.ApplyType)
	if err != nil {
		return nil, &ValidationError{Fields: map[string]string{"apply_type": err.Error()}}
	}
	if len(req.Legs) != len(sels) {
		return nil, &ValidationError{Fields: map[string]string{
			"legs": fmt.Sprintf("expected %d legs for %s, got %d", len(sels), req.ApplyType, len(req.Legs)),
		}}
	}
	chain := pricing.ChainFor(pricing.Tables[pricing.AirportPrice])
	legs := make([]AirportLeg, 0, len(sels))
	for i, sel := range sels {
		choice := req.Legs[i]
		sel = chain.Reduce(sel, "airport_route", strings.TrimSpace(choice.Route))
		sel = chain.Reduce(sel, "airport_car_type", strings.TrimSpace(choice.CarType))
		f, err := chain.Filters(sel)
		if err != nil {
			return nil, err
		}
		code, err := s.resolve(ctx, pricing.AirportPrice, f, fmt.Sprintf("legs[%d].", i))
		if err != nil {
			return nil, err
		}
		legs = append(legs, AirportLeg{Code: code, UsageDate: choice.UsageDate, Location: choice.Location, FlightNumber: choice.FlightNumber})
	}
	adds, err := s.mat.AirportAdditions(ctx, req.ApplyType, legs, req.SpecialRequests)
	if err != nil {
		return nil, err
	}
	return s.persist(ctx, q, adds)
}

// AddRooms resolves one code per category row and adds one item per row
// with persons.
func (s *QuoteService) AddRooms(ctx context.Context, u *User, req RoomRequest) ([]model.LineItem, error) {
	q, err := s.editable(ctx, u, req.QuoteID)
	if err != nil {
		return nil, err
	}
	rows := make([]RoomRow, 0, len(req.Rows))
	for i, r := range req.Rows {
		row := RoomRow{Category: r.Category, PersonCount: r.PersonCount}
		if r.PersonCount > 0 {
			code, err := s.resolve(ctx, pricing.RoomPrice, pricing.Filters{
				Values: map[string]string{
					"schedule":      req.Schedule,
					"cruise":        req.Cruise,
					"room_type":     req.RoomType,
					"room_category": r.Category,
				},
				Date: req.UsageDate,
			}, fmt.Sprintf("rows[%d].", i))
			if err != nil {
				return nil, err
			}
			row.Code = code
		}
		rows = append(rows, row)
	}
	adds, err := s.mat.RoomAdditions(ctx, rows, req.UsageDate, req.SpecialRequests)
	if err != nil {
		return nil, err
	}
	return s.persist(ctx, q, adds)
}

// AddCar resolves the car code and adds one item.
func (s *QuoteService) AddCar(ctx context.Context, u *User, req CarRequest) ([]model.LineItem, error) {
	q, err := s.editable(ctx, u, req.QuoteID)
	if err != nil {
		return nil, err
	}
	code, err := s.resolve(ctx, pricing.CarPrice, pricing.Filters{
		Values: map[string]string{
			"schedule":     req.Schedule,
			"cruise":       req.Cruise,
			"car_type":     req.CarType,
			"car_category": req.CarCategory,
		},
		Date: req.UsageDate,
	}, "")
	if err != nil {
		return nil, err
	}
	add, err := s.mat.CarAddition(ctx, code, req.CarType, CarForm{
		UsageDate:       req.UsageDate,
		PassengerCount:  req.PassengerCount,
		VehicleCount:    req.VehicleCount,
		Location:        req.Location,
		SpecialRequests: req.SpecialRequests,
	})
	if err != nil {
		return nil, err
	}
	return s.persist(ctx, q, []Addition{add})
}

// AddItem resolves a hotel, rent car or tour selection and adds one item.
func (s *QuoteService) AddItem(ctx context.Context, u *User, req ItemRequest) ([]model.LineItem, error) {
	q, err := s.editable(ctx, u, req.QuoteID)
	if err != nil {
		return nil, err
	}
	table, ok := CatalogTable(req.ServiceType)
	if !ok {
		return nil, &ValidationError{Fields: map[string]string{"service_type": fmt.Sprintf("unknown service type %q", req.ServiceType)}}
	}
	code, err := s.resolve(ctx, table, pricing.Filters{Values: req.Values, Date: req.UsageDate}, "")
	if err != nil {
		return nil, err
	}
	t := pricing.Tables[table]
	add, err := s.mat.QuoteAddition(ctx, Leg{ServiceType: req.ServiceType, Code: code, Category: req.Values[t.Chain[len(t.Chain)-1]]}, Form{
		Quantity:        req.Quantity,
		UsageDate:       req.UsageDate,
		PersonCount:     req.PersonCount,
		PassengerCount:  req.PassengerCount,
		VehicleCount:    req.VehicleCount,
		Location:        req.Location,
		SpecialRequests: req.SpecialRequests,
	})
	if err != nil {
		return nil, err
	}
	return s.persist(ctx, q, []Addition{add})
}

// Submit moves a draft quote to submitted and stores the live item total
// as its denormalised total.
func (s *QuoteService) Submit(ctx context.Context, u *User, quoteID uuid.UUID) (*model.Quote, error) {
	q, err := s.editable(ctx, u, quoteID)
	if err != nil {
		return nil, err
	}
	items, err := s.quotes.ListItems(ctx, q.ID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, &ValidationError{Fields: map[string]string{"items": "quote has no items"}}
	}
	_, total := summary.SumBySection(items)
	if err := s.quotes.UpdateStatus(ctx, q.ID, model.QuoteSubmitted, total); err != nil {
		return nil, err
	}
	q.Status = model.QuoteSubmitted
	q.TotalPrice = total
	s.log.WithFields(logrus.Fields{"component": "quote", "quote_id": q.ID, "total": total}).Info("quote submitted")
	return q, nil
}

// Summary returns the presented view of a quote owned by u.
func (s *QuoteService) Summary(ctx context.Context, u *User, quoteID uuid.UUID) (summary.QuoteSummary, error) {
	q, err := s.owned(ctx, u, quoteID)
	if err != nil {
		return summary.QuoteSummary{}, err
	}
	items, err := s.quotes.ListItems(ctx, q.ID)
	if err != nil {
		return summary.QuoteSummary{}, err
	}
	refs := map[model.ServiceType][]uuid.UUID{}
	for _, it := range items {
		refs[it.ServiceType] = append(refs[it.ServiceType], it.ServiceRefID)
	}
	var services []model.ServiceRecord
	for _, st := range model.ServiceTypes {
		if len(refs[st]) == 0 {
			continue
		}
		recs, err := s.services.ListByIDs(ctx, st, refs[st])
		if err != nil {
			return summary.QuoteSummary{}, err
		}
		services = append(services, recs...)
	}
	catalog, err := s.catalogRows(ctx, services)
	if err != nil {
		return summary.QuoteSummary{}, err
	}
	return summary.BuildQuote(*q, items, services, catalog), nil
}

// catalogRows looks up the price row behind each service record.  Codes
// that were retired or now match several rows are left out.
func (s *QuoteService) catalogRows(ctx context.Context, services []model.ServiceRecord) ([]model.PriceEntry, error) {
	var out []model.PriceEntry
	for _, rec := range services {
		table, ok := CatalogTable(rec.ServiceType)
		if !ok {
			continue
		}
		p, err := s.mat.prices.Price(ctx, table, rec.PriceCode)
		var amb *pricing.AmbiguousMatchError
		switch {
		case errors.Is(err, pricing.ErrNotFound), errors.As(err, &amb):
			continue
		case err != nil:
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
