package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gunuduru/assignment-auth/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultRateKeyPrefix = "assignauth:ratelimit:"
	localIdleTTL         = 10 * time.Minute
)

type RateLimiterConfig struct {
	Limit        int // tokens refilled per second
	Burst        int // bucket capacity, defaults to Limit
	KeyPrefix    string
	RedisTimeout time.Duration // per-call budget before the local limiter takes over
}

// bucketScript keeps one hash per client with fields tokens and ts.
// ARGV: rate, capacity, now (seconds, fractional).
// Returns {allowed, remaining (floored), retry_after_ms}; integers only since
// redis truncates Lua numbers.
var bucketScript = redis.NewScript(`
local rate = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local state = redis.call("hmget", KEYS[1], "tokens", "ts")
local tokens = tonumber(state[1]) or capacity
local ts = tonumber(state[2]) or now

tokens = math.min(capacity, tokens + math.max(0, now - ts) * rate)

if tokens < 1 then
    return {0, 0, math.ceil((1 - tokens) / rate * 1000)}
end

tokens = tokens - 1
redis.call("hset", KEYS[1], "tokens", tokens, "ts", now)
redis.call("expire", KEYS[1], math.ceil(capacity / rate * 2))
return {1, math.floor(tokens), 0}
`)

type bucketDecision struct {
	allowed    bool
	remaining  int64
	retryAfter time.Duration
}

type localEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// localLimiters is the per-process fallback used while redis is unreachable.
type localLimiters struct {
	mu      sync.Mutex
	entries map[string]*localEntry
	limit   rate.Limit
	burst   int
	swept   time.Time
}

func newLocalLimiters(limit rate.Limit, burst int) *localLimiters {
	return &localLimiters{entries: make(map[string]*localEntry), limit: limit, burst: burst, swept: time.Now()}
}

func (l *localLimiters) allow(key string, now time.Time) bucketDecision {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.swept) > localIdleTTL {
		for k, e := range l.entries {
			if now.Sub(e.lastSeen) > localIdleTTL {
				delete(l.entries, k)
			}
		}
		l.swept = now
	}

	e, ok := l.entries[key]
	if !ok {
		e = &localEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = e
	}
	e.lastSeen = now

	if !e.limiter.AllowN(now, 1) {
		return bucketDecision{retryAfter: time.Second}
	}
	return bucketDecision{allowed: true, remaining: int64(e.limiter.TokensAt(now))}
}

func redisDecision(ctx context.Context, rdb *redis.Client, key string, cfg RateLimiterConfig, now time.Time) (bucketDecision, error) {
	args := []any{cfg.Limit, cfg.Burst, float64(now.UnixMicro()) / 1e6}
	vals, err := bucketScript.Run(ctx, rdb, []string{key}, args...).Int64Slice()
	if err != nil {
		return bucketDecision{}, err
	}
	if len(vals) != 3 {
		return bucketDecision{allowed: true}, nil
	}
	return bucketDecision{
		allowed:    vals[0] == 1,
		remaining:  vals[1],
		retryAfter: time.Duration(vals[2]) * time.Millisecond,
	}, nil
}

// RateLimitMiddleware enforces a per-IP token bucket in redis. When redis
// errors the request is judged by an in-process limiter instead.
func RateLimitMiddleware(rdb *redis.Client, cfg RateLimiterConfig) gin.HandlerFunc {
	if cfg.Limit <= 0 {
		cfg.Limit = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = cfg.Limit
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = defaultRateKeyPrefix
	}
	if cfg.RedisTimeout <= 0 {
		cfg.RedisTimeout = 100 * time.Millisecond
	}
	local := newLocalLimiters(rate.Limit(cfg.Limit), cfg.Burst)
	limitHeader := strconv.Itoa(cfg.Limit)

	return func(c *gin.Context) {
		ip := c.ClientIP()
		now := time.Now()

		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RedisTimeout)
		d, err := redisDecision(ctx, rdb, cfg.KeyPrefix+ip, cfg, now)
		cancel()
		if err != nil {
			logger.Warn("redis rate limit unavailable, using local limiter",
				zap.Error(err), zap.String("ip", ip))
			d = local.allow(ip, now)
		}

		c.Header("X-RateLimit-Limit", limitHeader)
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(d.remaining, 10))
		if !d.allowed {
			secs := int64((d.retryAfter + time.Second - 1) / time.Second)
			c.Header("Retry-After", strconv.FormatInt(secs, 10))
			abort(c, http.StatusTooManyRequests, "RATE_LIMITED", "Too Many Requests")
			return
		}
		c.Next()
	}
}
