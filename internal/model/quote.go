package model

import (
    "time"

    "github.com/google/uuid"
)

// Quote statuses.  A quote starts as a draft, is submitted by its owner and
// is then approved or rejected by staff.
const (
    QuoteDraft     = "draft"
    QuoteSubmitted = "submitted"
    QuoteApproved  = "approved"
    QuoteRejected  = "rejected"
)

// Quote is the aggregate root of a booking request.  It owns its line
// items by intent (not enforced by the schema) and is never hard deleted.
//
// Fields:
//  ID         – primary key.
//  UserID     – owner of the quote.
//  Title      – free-text title shown in listings.
//  Status     – draft, submitted, approved or rejected.
//  TotalPrice – denormalised total; may lag behind the live sum of items.
//  CreatedAt  – creation timestamp.
type Quote struct {
    ID         uuid.UUID // quote.id
    UserID     uuid.UUID // quote.user_id
    Title      string    // quote.title
    Status     string    // quote.status
    TotalPrice int64     // quote.total_price
    CreatedAt  time.Time // quote.created_at
}

// LineItem is a quote_item row: a priced, quantified reference from a quote
// to one service record.  TotalPrice is computed when the item is created
// and is not recomputed on read.
type LineItem struct {
    ID           uuid.UUID   // quote_item.id
    QuoteID      uuid.UUID   // quote_item.quote_id
    ServiceType  ServiceType // quote_item.service_type
    ServiceRefID uuid.UUID   // quote_item.service_ref_id
    Quantity     int         // quote_item.quantity
    UnitPrice    int64       // quote_item.unit_price
    TotalPrice   int64       // quote_item.total_price (NULL reads as 0)
    UsageDate    *time.Time  // quote_item.usage_date
    CreatedAt    time.Time   // quote_item.created_at
}

// ServiceRecord is the service-specific detail row referenced by a line
// item.  It lives in the table named by ServiceType and is always written
// before the line item that points at it.
type ServiceRecord struct {
    ID              uuid.UUID
    ServiceType     ServiceType
    PriceCode       string
    Category        string
    UsageDate       *time.Time
    PersonCount     int
    PassengerCount  int
    VehicleCount    int
    Location        string
    FlightNumber    string
    SpecialRequests *string
}
