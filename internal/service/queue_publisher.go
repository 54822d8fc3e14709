// Package service provides the notification side of reservation saves:
// it publishes reservation events to RabbitMQ.  Errors are logged and
// returned so that the caller can ignore them without interrupting the
// main request flow.
package service

import (
    "context"
    "encoding/json"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/travel-booking-core/internal/booking"
    q "github.com/iliyamo/travel-booking-core/internal/queue"
)

// Publisher sends reservation events to q.ReservationQueue.  It dials per
// publish; reservation saves are rare enough that a pooled channel is not
// worth its reconnect handling.
type Publisher struct {
    URL     string
    Timeout time.Duration
    Log     *logrus.Logger
}

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url string, log *logrus.Logger) *Publisher {
    if log == nil {
        log = logrus.StandardLogger()
    }
    return &Publisher{URL: url, Timeout: 3 * time.Second, Log: log}
}

// PublishReservationSaved publishes event as a persistent JSON message.
func (p *Publisher) PublishReservationSaved(ctx context.Context, event q.ReservationSavedEvent) error {
    log := p.Log.WithFields(logrus.Fields{"component": "publisher", "reservation_id": event.ReservationID})
    ctx, cancel := context.WithTimeout(ctx, p.Timeout)
    defer cancel()

    conn, err := amqp.DialConfig(p.URL, amqp.Config{Dial: amqp.DefaultDial(p.Timeout)})
    if err != nil {
        log.WithError(err).Warn("rabbitmq: dial failed")
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        log.WithError(err).Warn("rabbitmq: channel open failed")
        return err
    }
    defer func() { _ = ch.Close() }()

    // Durable so messages survive broker restarts.
    if _, err := ch.QueueDeclare(q.ReservationQueue, true, false, false, false, nil); err != nil {
        log.WithError(err).Warn("rabbitmq: queue declare failed")
        return err
    }

    body, err := json.Marshal(event)
    if err != nil {
        log.WithError(err).Warn("rabbitmq: marshal event failed")
        return err
    }
    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", q.ReservationQueue, false, false, pub); err != nil {
        log.WithError(err).Warn("rabbitmq: publish failed")
        return err
    }
    log.Debug("reservation event published")
    return nil
}

// Hook adapts the publisher to a booking post-save hook.
func (p *Publisher) Hook() booking.Hook {
    return func(ctx context.Context, ev booking.Event) error {
        return p.PublishReservationSaved(ctx, EventFrom(ev, time.Now().UTC()))
    }
}

// EventFrom converts a booking event into its wire payload.
func EventFrom(ev booking.Event, at time.Time) q.ReservationSavedEvent {
    out := q.ReservationSavedEvent{
        ReservationID: ev.Reservation.ID.String(),
        UserID:        ev.User.ID.String(),
        Email:         ev.User.Email,
        QuoteID:       ev.Reservation.QuoteID.String(),
        Type:          ev.Reservation.Type,
        Status:        ev.Reservation.Status,
        Updated:       ev.Updated,
        Details:       make([]q.DetailLine, 0, len(ev.Details)),
        SavedAt:       at.Format(time.RFC3339),
    }
    for _, d := range ev.Details {
        out.Details = append(out.Details, q.DetailLine{Kind: d.Kind, PriceCode: d.PriceCode, Quantity: d.Quantity, TotalPrice: d.TotalPrice})
        out.Total += d.TotalPrice
    }
    return out
}
