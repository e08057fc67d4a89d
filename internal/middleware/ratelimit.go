package middleware

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/pipeline-tokens/internal/config"
)

// bucketScript refills and draws from one bucket atomically.  Time comes from
// the Redis server so replicas with skewed clocks share one view.  Returns
// {allowed, remaining, retry_after_ms}.
var bucketScript = redis.NewScript(`
local burst = tonumber(ARGV[1])
local every_ms = tonumber(ARGV[2])
local ttl_ms = tonumber(ARGV[3])

local t = redis.call('TIME')
local now = tonumber(t[1]) * 1000 + math.floor(tonumber(t[2]) / 1000)

local b = redis.call('HMGET', KEYS[1], 'tokens', 'ts')
local tokens = tonumber(b[1]) or burst
local ts = tonumber(b[2]) or now

local earned = math.floor(math.max(0, now - ts) / every_ms)
if earned > 0 then
  tokens = math.min(burst, tokens + earned)
  ts = ts + earned * every_ms
end
if tokens >= burst then
  ts = now
end

local allowed, retry = 0, 0
if tokens > 0 then
  allowed = 1
  tokens = tokens - 1
else
  retry = every_ms - (now - ts)
end

redis.call('HSET', KEYS[1], 'tokens', tokens, 'ts', ts)
redis.call('PEXPIRE', KEYS[1], ttl_ms)
return {allowed, tokens, retry}
`)

// NewTokenBucket limits each caller on each route to cfg.Burst requests, with
// one more allowed every cfg.Every.  It must run after JWTAuth so buckets are
// keyed by caller.  The limiter fails open: a nil client, a Redis error or a
// malformed script reply lets the request through.
func NewTokenBucket(cfg config.RateLimitConfig, rdb redis.Scripter, log *slog.Logger) echo.MiddlewareFunc {
	if !cfg.Enabled || isNil(rdb) {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	if log == nil {
		log = slog.Default()
	}
	burst := strconv.Itoa(cfg.Burst)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := bucketKey(cfg.Prefix, c)
			ctx := c.Request().Context()

			res, err := bucketScript.Run(ctx, rdb, []string{key},
				cfg.Burst, cfg.Every.Milliseconds(), cfg.TTL().Milliseconds()).Int64Slice()
			if err == nil && len(res) != 3 {
				err = errBadReply
			}
			if err != nil {
				log.WarnContext(ctx, "rate limiter unavailable, allowing request",
					slog.String("key", key), slog.Any("error", err))
				return next(c)
			}

			allowed, remaining, retryMs := res[0] == 1, res[1], res[2]
			c.Response().Header().Set("X-RateLimit-Limit", burst)
			c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			if allowed {
				return next(c)
			}

			secs := int64(math.Ceil(float64(retryMs) / 1000))
			if secs < 1 {
				secs = 1
			}
			c.Response().Header().Set("Retry-After", strconv.FormatInt(secs, 10))
			log.DebugContext(ctx, "rate limited", slog.String("key", key), slog.Int64("retry_after_ms", retryMs))
			return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "rate limit exceeded"})
		}
	}
}

var errBadReply = errors.New("unexpected rate limiter reply")

// bucketKey is "<prefix>:<scmContext>/<username>:<METHOD> <route>".
func bucketKey(prefix string, c echo.Context) string {
	return strings.Join([]string{prefix, userKey(c), c.Request().Method + " " + c.Path()}, ":")
}

// isNil reports whether the scripter is absent, including a typed nil
// *redis.Client from a failed NewRedisClient.
func isNil(rdb redis.Scripter) bool {
	if rdb == nil {
		return true
	}
	c, ok := rdb.(*redis.Client)
	return ok && c == nil
}
