package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/travel-booking-core/internal/model"
	"github.com/iliyamo/travel-booking-core/internal/repository"
	"github.com/iliyamo/travel-booking-core/internal/summary"
)

// Event describes a reservation whose details were fully written.
type Event struct {
	Reservation model.Reservation
	Details     []model.ReservationDetail
	User        User
	Updated     bool
}

// Hook runs after a successful save.  Its error is logged and never
// changes the outcome of the save.
type Hook func(ctx context.Context, ev Event) error

// QuoteReader loads quotes for the ownership check.
type QuoteReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Quote, error)
}

// SaveRequest is the submitted reservation form: one reservation type of
// one quote and its detail rows.
type SaveRequest struct {
	QuoteID uuid.UUID
	Type    string
	Details []DetailDraft
}

// SaveResult reports the reservation written and whether an existing
// reservation was reused.
type SaveResult struct {
	Reservation model.Reservation
	Details     []model.ReservationDetail
	Updated     bool
}

// ReservationWriter saves reservations.  A reservation is unique per
// (user, quote, type): saving again replaces the detail set of the
// existing reservation.
type ReservationWriter struct {
	store  ReservationStore
	quotes QuoteReader
	mat    *Materializer
	hooks  []Hook
	log    *logrus.Logger
}

// NewReservationWriter wires a ReservationWriter.  Hooks run in order
// after every fully successful save.
func NewReservationWriter(store ReservationStore, quotes QuoteReader, mat *Materializer, log *logrus.Logger, hooks ...Hook) *ReservationWriter {
	if store == nil || quotes == nil || mat == nil {
		panic("nil dependency passed to NewReservationWriter")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ReservationWriter{store: store, quotes: quotes, mat: mat, hooks: hooks, log: log}
}

// Save validates and prices the form, then creates the reservation or
// reuses the existing one, deletes its previous details and inserts the
// new ones.  Every detail insert is attempted; failures are returned as a
// *PartialWriteError and rows already written stay in place.
func (w *ReservationWriter) Save(ctx context.Context, u *User, req SaveRequest) (*SaveResult, error) {
	if err := requireUser(u); err != nil {
		return nil, err
	}
	if req.QuoteID == uuid.Nil {
		return nil, &ValidationError{Fields: map[string]string{"quote_id": "required"}}
	}
	details, err := w.mat.ReservationDetails(ctx, req.Type, req.Details)
	if err != nil {
		return nil, err
	}
	q, err := w.quotes.GetByID(ctx, req.QuoteID)
	if err != nil {
		return nil, err
	}
	if q.UserID != u.ID {
		return nil, repository.ErrForbidden
	}

	entry := w.log.WithFields(logrus.Fields{"component": "reservation", "user_id": u.ID, "quote_id": q.ID, "type": req.Type})
	res, updated, err := w.findOrCreate(ctx, u.ID, q.ID, req.Type)
	if err != nil {
		return nil, err
	}
	entry = entry.WithField("reservation_id", res.ID)

	if updated {
		if err := w.store.DeleteDetails(ctx, res.ID); err != nil {
			return nil, fmt.Errorf("clear details: %w", err)
		}
	}

	result := &SaveResult{Reservation: *res, Updated: updated}
	var failures []RowError
	for i := range details {
		d := details[i]
		d.ReservationID = res.ID
		if err := w.store.InsertDetail(ctx, &d); err != nil {
			failures = append(failures, RowError{Index: i, Kind: d.Kind, Code: d.PriceCode, Err: err})
			continue
		}
		result.Details = append(result.Details, d)
	}
	if len(failures) > 0 {
		perr := &PartialWriteError{Written: len(result.Details), Failures: failures}
		entry.WithError(perr).Warn("reservation details partially written")
		return result, perr
	}
	entry.WithFields(logrus.Fields{"details": len(result.Details), "updated": updated}).Info("reservation saved")

	w.runHooks(ctx, Event{Reservation: *res, Details: result.Details, User: *u, Updated: updated}, entry)
	return result, nil
}

// findOrCreate returns the reservation of (user, quote, type).  A unique
// violation on insert means another request created it first; the row is
// then reused.
func (w *ReservationWriter) findOrCreate(ctx context.Context, userID, quoteID uuid.UUID, typ string) (*model.Reservation, bool, error) {
	res, err := w.store.FindByUserQuoteType(ctx, userID, quoteID, typ)
	if err == nil {
		return res, true, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, err
	}
	res = &model.Reservation{
		ID:      uuid.New(),
		UserID:  userID,
		QuoteID: quoteID,
		Type:    typ,
		Status:  model.StatusPending,
	}
	err = w.store.Create(ctx, res)
	if err == nil {
		return res, false, nil
	}
	if !errors.Is(err, repository.ErrDuplicate) {
		return nil, false, err
	}
	res, err = w.store.FindByUserQuoteType(ctx, userID, quoteID, typ)
	if err != nil {
		return nil, false, err
	}
	return res, true, nil
}

func (w *ReservationWriter) runHooks(ctx context.Context, ev Event, entry *logrus.Entry) {
	for i, h := range w.hooks {
		if err := h(ctx, ev); err != nil {
			entry.WithError(err).WithField("hook", i).Warn("post-save hook failed")
		}
	}
}

// UpdateStatus moves a reservation along its status machine.  Invalid
// transitions return repository.ErrConflict.
func (w *ReservationWriter) UpdateStatus(ctx context.Context, u *User, id uuid.UUID, status string) (*model.Reservation, error) {
	if err := requireUser(u); err != nil {
		return nil, err
	}
	res, err := w.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !model.CanTransition(res.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", repository.ErrConflict, res.Status, status)
	}
	if err := w.store.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	w.log.WithFields(logrus.Fields{"component": "reservation", "reservation_id": id, "from": res.Status, "to": status, "by": u.ID}).
		Info("reservation status changed")
	res.Status = status
	return res, nil
}

// List returns one page of reservations for staff review.  Unknown
// statuses or types are rejected rather than silently matching nothing.
func (w *ReservationWriter) List(ctx context.Context, u *User, f model.ReservationFilter) ([]model.Reservation, int64, error) {
	if err := requireUser(u); err != nil {
		return nil, 0, err
	}
	verr := &ValidationError{}
	switch f.Status {
	case "", model.StatusPending, model.StatusConfirmed, model.StatusCompleted, model.StatusCancelled:
	default:
		verr.add("status", fmt.Sprintf("unknown status %q", f.Status))
	}
	if f.Type != "" && !ValidType(f.Type) {
		verr.add("type", fmt.Sprintf("unknown reservation type %q", f.Type))
	}
	if err := verr.orNil(); err != nil {
		return nil, 0, err
	}
	return w.store.List(ctx, f)
}

// Details returns a reservation owned by u with its detail rows.
func (w *ReservationWriter) Details(ctx context.Context, u *User, id uuid.UUID) (*model.Reservation, []model.ReservationDetail, error) {
	if err := requireUser(u); err != nil {
		return nil, nil, err
	}
	res, err := w.store.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if res.UserID != u.ID {
		return nil, nil, repository.ErrForbidden
	}
	details, err := w.store.ListDetails(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return res, details, nil
}

// Summary returns the merged view of a reservation owned by u.
func (w *ReservationWriter) Summary(ctx context.Context, u *User, id uuid.UUID) (summary.ReservationSummary, error) {
	res, details, err := w.Details(ctx, u, id)
	if err != nil {
		return summary.ReservationSummary{}, err
	}
	return summary.BuildReservation(*res, details), nil
}
