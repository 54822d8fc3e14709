package model

import (
    "time"

    "github.com/google/uuid"
)

// Reservation statuses.  The core only ever creates reservations in
// StatusPending; other transitions are driven by staff.
const (
    StatusPending   = "pending"
    StatusConfirmed = "confirmed"
    StatusCompleted = "completed"
    StatusCancelled = "cancelled"
)

var transitions = map[string][]string{
    StatusPending:   {StatusConfirmed, StatusCancelled},
    StatusConfirmed: {StatusCompleted, StatusCancelled},
}

// CanTransition reports whether a reservation may move from one status to
// another.  completed and cancelled are terminal.
func CanTransition(from, to string) bool {
    for _, s := range transitions[from] {
        if s == to {
            return true
        }
    }
    return false
}

// Reservation records a user's confirmed intent to book the services of
// one type from a quote.  At most one reservation exists per
// (UserID, QuoteID, Type).
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – user who made the reservation.
//  QuoteID   – quote the reservation was derived from.
//  Type      – reservation type (cruise, airport, car, ...).
//  Status    – pending, confirmed, completed or cancelled.
//  CreatedAt – creation timestamp.
type Reservation struct {
    ID        uuid.UUID // reservation.re_id
    UserID    uuid.UUID // reservation.re_user_id
    QuoteID   uuid.UUID // reservation.re_quote_id
    Type      string    // reservation.re_type
    Status    string    // reservation.re_status
    CreatedAt time.Time // reservation.re_created_at
}

// ReservationFilter narrows a staff listing of reservations.  Empty
// fields do not filter.  Page is 1-based.
type ReservationFilter struct {
    Status   string
    Type     string
    UserID   uuid.UUID
    QuoteID  uuid.UUID
    Page     int
    PageSize int
}

// ReservationDetail is one priced sub-component of a reservation, e.g. one
// room category or one leg of an airport transfer.  Kind names the detail
// table the row lives in.
//
// Fields:
//  ID             – primary key identifier.
//  ReservationID  – owning reservation.
//  Kind           – detail table (reservation_airport, reservation_cruise, ...).
//  PriceCode      – resolved catalog code.
//  Quantity       – priced quantity.
//  UnitPrice      – catalog price at the time of writing.
//  TotalPrice     – Quantity × UnitPrice.
//  UsageDate      – date the service is used.
//  PassengerCount – passengers for transfer/car rows.
//  VehicleCount   – vehicles for transfer/car rows.
//  Location       – pickup/drop-off location or accommodation.
//  Note           – free-text request (nullable).
type ReservationDetail struct {
    ID             uuid.UUID
    ReservationID  uuid.UUID
    Kind           string
    PriceCode      string
    Quantity       int
    UnitPrice      int64
    TotalPrice     int64
    UsageDate      *time.Time
    PassengerCount int
    VehicleCount   int
    Location       string
    Note           *string
}
