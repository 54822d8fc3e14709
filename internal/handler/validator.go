package handler

import (
    "errors"
    "reflect"
    "strings"
    "time"

    "github.com/go-playground/validator/v10"

    "github.com/iliyamo/travel-booking-core/internal/booking"
    "github.com/iliyamo/travel-booking-core/internal/pricing"
)

// RequestValidator adapts go-playground/validator to echo.Validator.
// Failures come back as *booking.ValidationError keyed by JSON field path.
type RequestValidator struct {
    v *validator.Validate
}

// NewValidator returns a RequestValidator reporting JSON field names.
func NewValidator() *RequestValidator {
    v := validator.New(validator.WithRequiredStructEnabled())
    v.RegisterTagNameFunc(func(f reflect.StructField) string {
        name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
        if name == "-" || name == "" {
            return f.Name
        }
        return name
    })
    _ = v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
        s := fl.Field().String()
        if s == "" {
            return true
        }
        _, err := time.Parse(pricing.DateLayout, s)
        return err == nil
    })
    return &RequestValidator{v: v}
}

// Validate implements echo.Validator.
func (r *RequestValidator) Validate(i interface{}) error {
    err := r.v.Struct(i)
    if err == nil {
        return nil
    }
    var ves validator.ValidationErrors
    if !errors.As(err, &ves) {
        return err
    }
    out := &booking.ValidationError{Fields: map[string]string{}}
    for _, fe := range ves {
        // Drop the root struct name: "airportBody.legs[0].route" -> "legs[0].route".
        ns := fe.Namespace()
        if i := strings.IndexByte(ns, '.'); i >= 0 {
            ns = ns[i+1:]
        }
        if _, ok := out.Fields[ns]; !ok {
            out.Fields[ns] = fe.Tag()
        }
    }
    return out
}

// parseDate reads an optional YYYY-MM-DD value.
func parseDate(s string) (*time.Time, error) {
    s = strings.TrimSpace(s)
    if s == "" {
        return nil, nil
    }
    t, err := time.Parse(pricing.DateLayout, s)
    if err != nil {
        return nil, &booking.ValidationError{Fields: map[string]string{"usage_date": "must be YYYY-MM-DD"}}
    }
    return &t, nil
}
