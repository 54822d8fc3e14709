package handler

import (
    "context"
    "fmt"
    "io"
    "sync"

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

func testCatalog() *pricing.MemoryCatalog {
    airport := func(code, category string, price int64) model.PriceEntry {
        return model.PriceEntry{Table: pricing.AirportPrice, Code: code, Price: price, Attrs: map[string]string{
            "airport_category": category,
            "airport_route":    "다낭공항",
            "airport_car_type": "4인승",
        }}
    }
    return pricing.NewMemoryCatalog(
        airport("AP-001", pricing.CategoryPickup, 200000),
        airport("AP-002", pricing.CategorySending, 180000),
        model.PriceEntry{Table: pricing.TourPrice, Code: "TR-1", Price: 450000, Attrs: map[string]string{
            "tour_name": "하롱베이", "tour_capacity": "4", "tour_vehicle": "밴", "tour_type": "단독",
        }},
        model.PriceEntry{Table: pricing.TourPrice, Code: "TR-2", Price: 460000, Attrs: map[string]string{
            "tour_name": "하롱베이", "tour_capacity": "4", "tour_vehicle": "밴", "tour_type": "단독",
        }},
    )
}

// memStore backs quotes, services and reservations in one place.
type memStore struct {
    mu       sync.Mutex
    quotes   map[uuid.UUID]*model.Quote
    items    []model.LineItem
    services []model.ServiceRecord
    res      map[uuid.UUID]*model.Reservation
    details  []model.ReservationDetail
    // failServiceNth makes the nth service insert (1-based) fail.
    failServiceNth int
    serviceCalls   int
}

func newMemStore() *memStore {
    return &memStore{quotes: map[uuid.UUID]*model.Quote{}, res: map[uuid.UUID]*model.Reservation{}}
}

// quoteStore and reservationStore split memStore's method sets; both
// interfaces name GetByID and UpdateStatus.
type quoteStore struct{ *memStore }
type reservationStore struct{ *memStore }
type serviceStore struct{ *memStore }

func (s quoteStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Quote, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    q, ok := s.quotes[id]
    if !ok {
        return nil, repository.ErrNotFound
    }
    cp := *q
    return &cp, nil
}

func (s quoteStore) LatestDraft(ctx context.Context, userID uuid.UUID) (*model.Quote, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    for _, q := range s.quotes {
        if q.UserID == userID && q.Status == model.QuoteDraft {
            cp := *q
            return &cp, nil
        }
    }
    return nil, repository.ErrNotFound
}

func (s quoteStore) Create(ctx context.Context, q *model.Quote) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    if q.ID == uuid.Nil {
        q.ID = uuid.New()
    }
    cp := *q
    s.quotes[q.ID] = &cp
    return nil
}

func (s quoteStore) UpdateStatus(ctx context.Context, id uuid.UUID, status string, total int64) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    q, ok := s.quotes[id]
    if !ok {
        return repository.ErrNotFound
    }
    q.Status, q.TotalPrice = status, total
    return nil
}

func (s quoteStore) InsertItem(ctx context.Context, it *model.LineItem) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    if it.ID == uuid.Nil {
        it.ID = uuid.New()
    }
    s.items = append(s.items, *it)
    return nil
}

func (s quoteStore) ListItems(ctx context.Context, quoteID uuid.UUID) ([]model.LineItem, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    var out []model.LineItem
    for _, it := range s.items {
        if it.QuoteID == quoteID {
            out = append(out, it)
        }
    }
    return out, nil
}

func (s serviceStore) Insert(ctx context.Context, r *model.ServiceRecord) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    s.serviceCalls++
    if s.failServiceNth > 0 && s.serviceCalls == s.failServiceNth {
        return fmt.Errorf("insert %s: %w", r.ServiceType, repository.ErrTimeout)
    }
    if r.ID == uuid.Nil {
        r.ID = uuid.New()
    }
    s.services = append(s.services, *r)
    return nil
}

func (s serviceStore) ListByIDs(ctx context.Context, t model.ServiceType, ids []uuid.UUID) ([]model.ServiceRecord, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    want := map[uuid.UUID]bool{}
    for _, id := range ids {
        want[id] = true
    }
    var out []model.ServiceRecord
    for _, r := range s.services {
        if r.ServiceType == t && want[r.ID] {
            out = append(out, r)
        }
    }
    return out, nil
}

func (s reservationStore) FindByUserQuoteType(ctx context.Context, userID, quoteID uuid.UUID, typ string) (*model.Reservation, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    for _, r := range s.res {
        if r.UserID == userID && r.QuoteID == quoteID && r.Type == typ {
            cp := *r
            return &cp, nil
        }
    }
    return nil, repository.ErrNotFound
}

func (s reservationStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Reservation, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    r, ok := s.res[id]
    if !ok {
        return nil, repository.ErrNotFound
    }
    cp := *r
    return &cp, nil
}

func (s reservationStore) Create(ctx context.Context, res *model.Reservation) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    for _, r := range s.res {
        if r.UserID == res.UserID && r.QuoteID == res.QuoteID && r.Type == res.Type {
            return fmt.Errorf("%w: uq_reservation_user_quote_type", repository.ErrDuplicate)
        }
    }
    cp := *res
    s.res[res.ID] = &cp
    return nil
}

func (s reservationStore) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    r, ok := s.res[id]
    if !ok {
        return repository.ErrNotFound
    }
    r.Status = status
    return nil
}

func (s reservationStore) DeleteDetails(ctx context.Context, reservationID uuid.UUID) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    kept := s.details[:0]
    for _, d := range s.details {
        if d.ReservationID != reservationID {
            kept = append(kept, d)
        }
    }
    s.details = kept
    return nil
}

func (s reservationStore) InsertDetail(ctx context.Context, d *model.ReservationDetail) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    if d.ID == uuid.Nil {
        d.ID = uuid.New()
    }
    s.details = append(s.details, *d)
    return nil
}

func (s reservationStore) ListDetails(ctx context.Context, reservationID uuid.UUID) ([]model.ReservationDetail, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    var out []model.ReservationDetail
    for _, d := range s.details {
        if d.ReservationID == reservationID {
            out = append(out, d)
        }
    }
    return out, nil
}

type pingerFunc func() error

func (f pingerFunc) PingContext(ctx context.Context) error { return f() }

func (s reservationStore) List(ctx context.Context, f model.ReservationFilter) ([]model.Reservation, int64, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    var out []model.Reservation
    for _, r := range s.res {
        if (f.Status == "" || r.Status == f.Status) && (f.Type == "" || r.Type == f.Type) &&
            (f.UserID == uuid.Nil || r.UserID == f.UserID) {
            out = append(out, *r)
        }
    }
    return out, int64(len(out)), nil
}
