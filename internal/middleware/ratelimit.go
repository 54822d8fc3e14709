package middleware

import (
    "math"
    "net/http"
    "path"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/travel-booking-core/internal/config"
)

// writeBudget spends one token from the bucket in KEYS[1].  ARGV holds
// now_ms, capacity, refill, interval_ms and ttl_s; the reply is
// {allowed, tokens_left, wait_ms}.
var writeBudget = redis.NewScript(`
local b = redis.call('HMGET', KEYS[1], 't', 'at')
local now, cap, refill, every = tonumber(ARGV[1]), tonumber(ARGV[2]), tonumber(ARGV[3]), tonumber(ARGV[4])
local t, at = tonumber(b[1]) or cap, tonumber(b[2]) or now
local n = math.floor((now - at) / every)
if n > 0 then
  t = math.min(cap, t + n * refill)
  at = at + n * every
end
local ok, wait = 0, 0
if t > 0 then ok, t = 1, t - 1 else wait = every - (now - at) end
redis.call('HSET', KEYS[1], 't', t, 'at', at)
redis.call('EXPIRE', KEYS[1], ARGV[5])
return {ok, t, wait}
`)

// WriteLimiter throttles the quote and reservation writes.  Every quote
// gets its own bucket per user, so filling one quote does not block
// another; the remaining write routes share a bucket per user and route.
// Without Redis, or on a Redis error, requests pass through.
func WriteLimiter(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    every := cfg.RefillInterval.Milliseconds()
    if every <= 0 {
        every = 1000
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := writeKey(cfg.Prefix, c)
            res, err := writeBudget.Run(c.Request().Context(), rdb, []string{key},
                time.Now().UnixMilli(), cfg.Capacity, cfg.RefillTokens, every, int64(cfg.TTL/time.Second)).Int64Slice()
            if err != nil || len(res) != 3 {
                logrus.WithError(err).WithField("key", key).Warn("write limiter unavailable")
                return next(c)
            }
            c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
            c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res[1], 10))
            if res[0] == 1 {
                return next(c)
            }
            wait := int(math.Ceil(float64(res[2]) / 1000))
            c.Response().Header().Set("Retry-After", strconv.Itoa(wait))
            logrus.WithFields(logrus.Fields{"key": key, "wait_ms": res[2]}).Debug("write throttled")
            return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "too many writes", "retry_after": wait})
        }
    }
}

// writeKey names the bucket: the caller (user id, or client IP before
// login) and then the quote being edited or the route's last segment.
func writeKey(prefix string, c echo.Context) string {
    parts := []string{prefix}
    if uid := userKey(c); uid != "anon" {
        parts = append(parts, "user", uid)
    } else {
        parts = append(parts, "ip", c.RealIP())
    }
    if id := c.Param("id"); id != "" {
        parts = append(parts, "quote", id)
    } else {
        parts = append(parts, path.Base(c.Path()))
    }
    return strings.Join(parts, ":")
}
