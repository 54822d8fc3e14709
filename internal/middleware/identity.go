package middleware

// identity.go exposes the authenticated user stored by JWTAuth to handlers
// and to the other middleware.

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/travel-booking-core/internal/booking"
)

// CurrentUser returns the user stored by JWTAuth, or nil when the request
// is anonymous.  Services treat nil as booking.ErrAuthRequired.
func CurrentUser(c echo.Context) *booking.User {
    u, _ := c.Get(ctxUser).(*booking.User)
    return u
}

// userKey identifies the caller for rate limiting; anonymous callers share
// the "anon" key.
func userKey(c echo.Context) string {
    if s, ok := c.Get(ctxUserID).(string); ok && s != "" {
        return s
    }
    return "anon"
}
