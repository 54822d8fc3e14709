package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "net/http" // HTTP status codes for responses
    "strings"  // string utilities for prefix checking and trimming

    "github.com/golang-jwt/jwt/v5" // JWT library for parsing and validating tokens
    "github.com/google/uuid"       // user ids are UUIDs
    "github.com/labstack/echo/v4"  // Echo framework used for defining middleware and handlers

    "github.com/iliyamo/travel-booking-core/internal/booking"
)

// Context keys set by JWTAuth.
const (
    ctxUser   = "user"
    ctxUserID = "user_id"
    ctxRole   = "role"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// issued by the external identity provider.  The token must be HS256 signed
// with secret and carry the user's UUID in "sub"; "email" and "role" are
// optional.  On success the booking.User is stored in the context and can
// be read with CurrentUser.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return unauthorized(c, "missing bearer token")
            }
            raw := strings.TrimPrefix(auth, "Bearer ")

            // Only HMAC tokens are accepted; anything else is rejected
            // before the signature is checked.
            tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
                if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
                    return nil, echo.ErrUnauthorized
                }
                return []byte(secret), nil
            }, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
            if err != nil || !tok.Valid {
                return unauthorized(c, "invalid token")
            }
            claims, ok := tok.Claims.(jwt.MapClaims)
            if !ok {
                return unauthorized(c, "invalid claims")
            }
            sub, _ := claims["sub"].(string)
            id, err := uuid.Parse(sub)
            if err != nil || id == uuid.Nil {
                return unauthorized(c, "invalid subject")
            }
            email, _ := claims["email"].(string)
            role, _ := claims["role"].(string)

            c.Set(ctxUser, &booking.User{ID: id, Email: email})
            c.Set(ctxUserID, id.String())
            c.Set(ctxRole, role)
            return next(c)
        }
    }
}

func unauthorized(c echo.Context, msg string) error {
    return c.JSON(http.StatusUnauthorized, echo.Map{"error": booking.ErrAuthRequired.Error(), "detail": msg})
}
