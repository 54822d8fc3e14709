package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "strings"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/sirupsen/logrus"
)

// Consumer listens on ReservationQueue and appends one line per event to
// <Dir>/reservation.log.
type Consumer struct {
    URL string
    Dir string
    Log *logrus.Logger
}

// Run connects to RabbitMQ, declares the queue (durable) and consumes
// until ctx is cancelled.  Lost connections are re-dialled with an
// exponential backoff capped at 30s.  Messages that cannot be handled are
// rejected without requeue so that one bad payload cannot spin the loop.
func (c *Consumer) Run(ctx context.Context) error {
    log := c.logger()
    backoff := time.Second
    for {
        conn, err := amqp.Dial(c.URL)
        if err != nil {
            log.WithError(err).Warnf("reservation-consumer: dial failed; retrying in %s", backoff)
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = c.consumeLoop(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        log.WithError(err).Warn("reservation-consumer: consume loop ended; reconnecting")
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        c.logger().WithError(err).Warn("reservation-consumer: set QoS failed")
    }
    if _, err := ch.QueueDeclare(ReservationQueue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(ReservationQueue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := c.Handle(d.Body); err != nil {
                c.logger().WithError(err).Warn("reservation-consumer: handle message failed")
                _ = d.Nack(false, false)
                continue
            }
            _ = d.Ack(false)
        }
    }
}

// Handle decodes one event and appends its log line.
func (c *Consumer) Handle(body []byte) error {
    var ev ReservationSavedEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.ReservationID == "" {
        return errors.New("event without reservation_id")
    }
    dir := c.Dir
    if dir == "" {
        dir = "logs"
    }
    if err := os.MkdirAll(dir, 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(filepath.Join(dir, "reservation.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()
    if _, err := f.WriteString(FormatLine(ev)); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

// FormatLine renders an event as one human readable log line.
func FormatLine(ev ReservationSavedEvent) string {
    codes := make([]string, 0, len(ev.Details))
    for _, d := range ev.Details {
        codes = append(codes, fmt.Sprintf("%s×%d", d.PriceCode, d.Quantity))
    }
    action := "created"
    if ev.Updated {
        action = "updated"
    }
    return fmt.Sprintf("[%s] Reservation %s | reservation_id=%s | user_id=%s | quote_id=%s | type=%s | status=%s | total=%d | details=[%s]\n",
        ev.SavedAt, action, ev.ReservationID, ev.UserID, ev.QuoteID, ev.Type, ev.Status, ev.Total, strings.Join(codes, ","))
}

func (c *Consumer) logger() *logrus.Logger {
    if c.Log == nil {
        return logrus.StandardLogger()
    }
    return c.Log
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}
