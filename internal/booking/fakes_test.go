package booking

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/travel-booking-core/internal/model"
	"github.com/iliyamo/travel-booking-core/internal/pricing"
	"github.com/iliyamo/travel-booking-core/internal/repository"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func day(s string) *time.Time {
	t, err := time.Parse(pricing.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func strPtr(s string) *string { return &s }

func airportRow(code, category, route, carType string, price int64) model.PriceEntry {
	return model.PriceEntry{Table: pricing.AirportPrice, Code: code, Price: price, Attrs: map[string]string{
		"airport_category": category,
		"airport_route":    route,
		"airport_car_type": carType,
	}}
}

func roomRow(code, category string, price int64) model.PriceEntry {
	return model.PriceEntry{Table: pricing.RoomPrice, Code: code, Price: price, Attrs: map[string]string{
		"schedule":      "1박2일",
		"cruise":        "앰배서더",
		"room_type":     "발코니",
		"room_category": category,
	}}
}

func carRow(code, carType string, price int64) model.PriceEntry {
	return model.PriceEntry{Table: pricing.CarPrice, Code: code, Price: price, Attrs: map[string]string{
		"schedule":     "1박2일",
		"cruise":       "앰배서더",
		"car_type":     carType,
		"car_category": "왕복",
	}}
}

func testCatalog() *pricing.MemoryCatalog {
	return pricing.NewMemoryCatalog(
		airportRow("AP-001", pricing.CategoryPickup, "다낭공항", "4인승", 200000),
		airportRow("AP-002", pricing.CategorySending, "다낭공항", "4인승", 180000),
		airportRow("AP-005", pricing.CategoryPickup, "하노이공항", "7인승", 300000),
		airportRow("AP-006", pricing.CategoryPickup, "하노이공항", "7인승", 310000),
		roomRow("RM-A", "성인", 1500000),
		roomRow("RM-C", "아동", 900000),
		carRow("CAR-SHUTTLE-9", "스테이하롱 셔틀", 200000),
		carRow("CAR-SOLO", "스테이하롱 셔틀 리무진 단독", 1200000),
		model.PriceEntry{Table: pricing.TourPrice, Code: "TR-1", Price: 450000, Attrs: map[string]string{
			"tour_name": "하롱베이", "tour_capacity": "4", "tour_vehicle": "밴", "tour_type": "단독",
		}},
	)
}

// countingPrices records every price read.
type countingPrices struct {
	inner PriceSource
	calls int
}

func (c *countingPrices) Price(ctx context.Context, table, code string) (model.PriceEntry, error) {
	c.calls++
	return c.inner.Price(ctx, table, code)
}

type memQuotes struct {
	mu     sync.Mutex
	quotes map[uuid.UUID]*model.Quote
	items  []model.LineItem
}

func newMemQuotes() *memQuotes { return &memQuotes{quotes: map[uuid.UUID]*model.Quote{}} }

func (m *memQuotes) GetByID(ctx context.Context, id uuid.UUID) (*model.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.quotes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *q
	return &cp, nil
}

func (m *memQuotes) LatestDraft(ctx context.Context, userID uuid.UUID) (*model.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out *model.Quote
	for _, q := range m.quotes {
		if q.UserID == userID && q.Status == model.QuoteDraft && (out == nil || q.CreatedAt.After(out.CreatedAt)) {
			out = q
		}
	}
	if out == nil {
		return nil, repository.ErrNotFound
	}
	cp := *out
	return &cp, nil
}

func (m *memQuotes) Create(ctx context.Context, q *model.Quote) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	cp := *q
	m.quotes[q.ID] = &cp
	return nil
}

func (m *memQuotes) UpdateStatus(ctx context.Context, id uuid.UUID, status string, total int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.quotes[id]
	if !ok {
		return repository.ErrNotFound
	}
	q.Status = status
	q.TotalPrice = total
	return nil
}

func (m *memQuotes) InsertItem(ctx context.Context, it *model.LineItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	m.items = append(m.items, *it)
	return nil
}

func (m *memQuotes) ListItems(ctx context.Context, quoteID uuid.UUID) ([]model.LineItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.LineItem
	for _, it := range m.items {
		if it.QuoteID == quoteID {
			out = append(out, it)
		}
	}
	return out, nil
}

type memServices struct {
	mu   sync.Mutex
	recs []model.ServiceRecord
	// failNth makes the nth Insert call (1-based) fail.
	failNth int
	calls   int
}

func (m *memServices) Insert(ctx context.Context, s *model.ServiceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.failNth > 0 && m.calls == m.failNth {
		return fmt.Errorf("insert %s: %w", s.ServiceType, repository.ErrTimeout)
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	m.recs = append(m.recs, *s)
	return nil
}

func (m *memServices) ListByIDs(ctx context.Context, t model.ServiceType, ids []uuid.UUID) ([]model.ServiceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := map[uuid.UUID]bool{}
	for _, id := range ids {
		want[id] = true
	}
	var out []model.ServiceRecord
	for _, r := range m.recs {
		if r.ServiceType == t && want[r.ID] {
			out = append(out, r)
		}
	}
	return out, nil
}

// memReservations enforces (user, quote, type) uniqueness on Create like
// the schema constraint does.
type memReservations struct {
	mu       sync.Mutex
	res      map[uuid.UUID]*model.Reservation
	details  []model.ReservationDetail
	deletes  int
	failCode map[string]bool
	// beforeCreate lets a test slip in a concurrent insert.
	beforeCreate func(res *model.Reservation)
}

func newMemReservations() *memReservations {
	return &memReservations{res: map[uuid.UUID]*model.Reservation{}, failCode: map[string]bool{}}
}

func (m *memReservations) FindByUserQuoteType(ctx context.Context, userID, quoteID uuid.UUID, typ string) (*model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.res {
		if r.UserID == userID && r.QuoteID == quoteID && r.Type == typ {
			cp := *r
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memReservations) GetByID(ctx context.Context, id uuid.UUID) (*model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.res[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memReservations) Create(ctx context.Context, res *model.Reservation) error {
	if m.beforeCreate != nil {
		hook := m.beforeCreate
		m.beforeCreate = nil
		hook(res)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.res {
		if r.UserID == res.UserID && r.QuoteID == res.QuoteID && r.Type == res.Type {
			return fmt.Errorf("%w: uq_reservation_user_quote_type", repository.ErrDuplicate)
		}
	}
	cp := *res
	m.res[res.ID] = &cp
	return nil
}

func (m *memReservations) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.res[id]
	if !ok {
		return repository.ErrNotFound
	}
	r.Status = status
	return nil
}

func (m *memReservations) DeleteDetails(ctx context.Context, reservationID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
	kept := m.details[:0]
	for _, d := range m.details {
		if d.ReservationID != reservationID {
			kept = append(kept, d)
		}
	}
	m.details = kept
	return nil
}

func (m *memReservations) InsertDetail(ctx context.Context, d *model.ReservationDetail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCode[d.PriceCode] {
		return fmt.Errorf("insert %s: %w", d.Kind, repository.ErrTimeout)
	}
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	m.details = append(m.details, *d)
	return nil
}

func (m *memReservations) ListDetails(ctx context.Context, reservationID uuid.UUID) ([]model.ReservationDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.ReservationDetail
	for _, d := range m.details {
		if d.ReservationID == reservationID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memReservations) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.res)
}

func (m *memReservations) List(ctx context.Context, f model.ReservationFilter) ([]model.Reservation, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Reservation
	for _, r := range m.res {
		if (f.Status == "" || r.Status == f.Status) && (f.Type == "" || r.Type == f.Type) {
			out = append(out, *r)
		}
	}
	return out, int64(len(out)), nil
}
