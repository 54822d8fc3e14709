// Package queue defines message payloads exchanged over the message broker
// and the consumer that records them.
package queue

// ReservationQueue is the durable queue reservation events are published to.
const ReservationQueue = "reservation.saved"

// DetailLine is one priced detail row of a saved reservation.
type DetailLine struct {
    Kind       string `json:"kind"`
    PriceCode  string `json:"price_code"`
    Quantity   int    `json:"quantity"`
    TotalPrice int64  `json:"total_price"`
}

// ReservationSavedEvent is published after a reservation and all of its
// detail rows were written.  It carries enough for downstream consumers to
// log or notify without querying the primary database.
type ReservationSavedEvent struct {
    ReservationID string       `json:"reservation_id"`
    UserID        string       `json:"user_id"`
    Email         string       `json:"email,omitempty"`
    QuoteID       string       `json:"quote_id"`
    Type          string       `json:"type"`
    Status        string       `json:"status"`
    Updated       bool         `json:"updated"`
    Details       []DetailLine `json:"details"`
    Total         int64        `json:"total"`
    SavedAt       string       `json:"saved_at"`
}
