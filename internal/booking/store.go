package booking

import (
	"context"

	"github.com/google/uuid"

	"github.com/iliyamo/travel-booking-core/internal/model"
	"github.com/iliyamo/travel-booking-core/internal/pricing"
)

// CodeResolver maps a full selection to a catalog code.  *pricing.Resolver
// implements it.
type CodeResolver interface {
	ResolveCode(ctx context.Context, table string, f pricing.Filters) (pricing.Resolution, error)
}

// QuoteStore persists quotes and their items.  *repository.QuoteRepo
// implements it.
type QuoteStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Quote, error)
	LatestDraft(ctx context.Context, userID uuid.UUID) (*model.Quote, error)
	Create(ctx context.Context, q *model.Quote) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, total int64) error
	InsertItem(ctx context.Context, it *model.LineItem) error
	ListItems(ctx context.Context, quoteID uuid.UUID) ([]model.LineItem, error)
}

// ServiceStore persists service records.  *repository.ServiceRepo
// implements it.
type ServiceStore interface {
	Insert(ctx context.Context, s *model.ServiceRecord) error
	ListByIDs(ctx context.Context, t model.ServiceType, ids []uuid.UUID) ([]model.ServiceRecord, error)
}

// ReservationStore persists reservations and their detail rows.
// *repository.ReservationRepo implements it.
type ReservationStore interface {
	FindByUserQuoteType(ctx context.Context, userID, quoteID uuid.UUID, typ string) (*model.Reservation, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Reservation, error)
	Create(ctx context.Context, res *model.Reservation) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	DeleteDetails(ctx context.Context, reservationID uuid.UUID) error
	InsertDetail(ctx context.Context, d *model.ReservationDetail) error
	ListDetails(ctx context.Context, reservationID uuid.UUID) ([]model.ReservationDetail, error)
	List(ctx context.Context, f model.ReservationFilter) ([]model.Reservation, int64, error)
}
