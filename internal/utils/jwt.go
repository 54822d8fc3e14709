package utils // package utils provides helper functions for token creation

import (
    "time" // time utilities for generating expirations

    "github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
    "github.com/google/uuid"       // user ids are UUIDs
)

// AccessToken represents a signed JWT access token along with its expiry.
// Production tokens come from the external identity provider; this helper
// mints compatible tokens for local runs (cmd/devtoken) and tests.
type AccessToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// NewAccessToken builds and signs an HS256 JWT carrying the claims the API
// expects: sub (user UUID), email, role, exp and iat.
func NewAccessToken(secret string, userID uuid.UUID, email, role string, ttl time.Duration) (AccessToken, error) {
    now := time.Now().UTC()
    exp := now.Add(ttl)
    claims := jwt.MapClaims{
        "sub":   userID.String(),
        "email": email,
        "role":  role,
        "exp":   exp.Unix(),
        "iat":   now.Unix(),
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := t.SignedString([]byte(secret))
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}
