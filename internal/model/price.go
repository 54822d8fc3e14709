package model

import "time"

// PriceEntry is one row of a price catalog table (airport_price, room_price,
// car_price, hotel_price, rent_price, tour_price).  Every table shares the
// same shape: a unique code, a price in the currency's integer unit, a set
// of categorical attributes and an optional validity window.
//
// Fields:
//  Table     – catalog table the row was read from.
//  Code      – unique price code referenced by service records.
//  Price     – unit price (integer currency units, e.g. VND).
//  Attrs     – categorical attributes keyed by column name.
//  StartDate – first day the price is valid (nil when unbounded).
//  EndDate   – last day the price is valid, inclusive (nil when unbounded).
type PriceEntry struct {
    Table     string
    Code      string
    Price     int64
    Attrs     map[string]string
    StartDate *time.Time
    EndDate   *time.Time
}

// Attr returns the value of a categorical attribute or "" when unset.
func (p PriceEntry) Attr(name string) string {
    if p.Attrs == nil {
        return ""
    }
    return p.Attrs[name]
}

// ValidOn reports whether day falls within the entry's validity window.
// Bounds are inclusive and compared by calendar date.
func (p PriceEntry) ValidOn(day time.Time) bool {
    d := truncateDay(day)
    if p.StartDate != nil && d.Before(truncateDay(*p.StartDate)) {
        return false
    }
    if p.EndDate != nil && d.After(truncateDay(*p.EndDate)) {
        return false
    }
    return true
}

func truncateDay(t time.Time) time.Time {
    y, m, d := t.Date()
    return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
