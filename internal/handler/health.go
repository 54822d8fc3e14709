package handler // declare the package name; contains HTTP handlers

import (
    "context"
    "database/sql"
    "net/http" // net/http provides status codes and response helpers
    "time"

    "github.com/labstack/echo/v4" // echo is the web framework used for this project
    "github.com/redis/go-redis/v9"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
    PingContext(ctx context.Context) error
}

// HealthHandler answers liveness and readiness probes.  Redis is optional:
// the rate limiter fails open without it, so its absence only shows up as
// "disabled" in the readiness body.
type HealthHandler struct {
    DB    Pinger
    Redis *redis.Client
}

// NewHealthHandler constructs a HealthHandler.  rdb may be nil.
func NewHealthHandler(db *sql.DB, rdb *redis.Client) *HealthHandler {
    return &HealthHandler{DB: db, Redis: rdb}
}

// Health is a simple liveness endpoint used by load balancers.  It returns
// a plain text "ok" with 200 whenever the process is serving requests.
func Health(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}

// Ready reports whether the store answers within a second.  A failed
// database ping yields 503; Redis problems are reported but do not fail
// the probe.
func (h *HealthHandler) Ready(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), time.Second)
    defer cancel()

    body := echo.Map{"database": "ok", "redis": "disabled"}
    status := http.StatusOK
    if h.DB == nil {
        body["database"] = "unconfigured"
        status = http.StatusServiceUnavailable
    } else if err := h.DB.PingContext(ctx); err != nil {
        body["database"] = err.Error()
        status = http.StatusServiceUnavailable
    }
    if h.Redis != nil {
        if err := h.Redis.Ping(ctx).Err(); err != nil {
            body["redis"] = err.Error()
        } else {
            body["redis"] = "ok"
        }
    }
    return c.JSON(status, body)
}
