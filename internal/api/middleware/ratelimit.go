package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/GAURISHTODI/Cerebrus/internal/metrics"
)

// RateLimit is a fixed-window budget for one kind of relay request.
type RateLimit struct {
	Name     string
	Requests int
	Window   time.Duration
	// PerRoom counts each room separately, so a client drawing in two
	// rooms gets two budgets.
	PerRoom bool
}

type limitRule struct {
	method string
	prefix string
	limit  RateLimit
}

var (
	drawLimit = RateLimit{Name: "draw", Requests: 600, Window: time.Minute, PerRoom: true}
	pollLimit = RateLimit{Name: "poll", Requests: 240, Window: time.Minute}
)

// relayRules covers both the /api routes and their unprefixed aliases.
var relayRules = []limitRule{
	{http.MethodPost, "/api/draw/", drawLimit},
	{http.MethodPost, "/draw/", drawLimit},
	{http.MethodGet, "/api/poll/", pollLimit},
	{http.MethodGet, "/poll/", pollLimit},
}

// RateLimiter throttles draws and polls per client IP using Redis counters.
// Without a Redis client it lets every request through.
type RateLimiter struct {
	client *redis.Client
	rules  []limitRule
	exempt []netip.Prefix
	logger zerolog.Logger
}

// NewRateLimiter creates a rate limiter. client may be nil. whitelist holds
// IPs or CIDRs that are never throttled; malformed entries are logged and
// skipped.
func NewRateLimiter(client *redis.Client, logger zerolog.Logger, whitelist []string) *RateLimiter {
	rl := &RateLimiter{
		client: client,
		rules:  relayRules,
		logger: logger,
	}

	for _, entry := range whitelist {
		p, err := parseExempt(entry)
		if err != nil {
			logger.Warn().Str("entry", entry).Err(err).Msg("invalid rate limit whitelist entry")
			continue
		}
		rl.exempt = append(rl.exempt, p)
	}
	if len(rl.exempt) > 0 {
		logger.Info().Int("entries", len(rl.exempt)).Msg("rate limit whitelist configured")
	}

	return rl
}

func parseExempt(entry string) (netip.Prefix, error) {
	if strings.Contains(entry, "/") {
		p, err := netip.ParsePrefix(entry)
		return p.Masked(), err
	}
	addr, err := netip.ParseAddr(entry)
	if err != nil {
		return netip.Prefix{}, err
	}
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}

// isWhitelisted reports whether ip is exempt from rate limiting.
func (rl *RateLimiter) isWhitelisted(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range rl.exempt {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// RealIP extracts the client IP from proxy headers or the connection.
func RealIP(r *http.Request) string {
	if ip := r.Header.Get("Fly-Client-IP"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return strings.TrimSpace(strings.Split(ip, ",")[0])
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// findLimit returns the limit that applies to r and the room it targets,
// or nil when the request is not throttled.
func (rl *RateLimiter) findLimit(r *http.Request) (*RateLimit, string) {
	for _, rule := range rl.rules {
		if r.Method != rule.method || !strings.HasPrefix(r.URL.Path, rule.prefix) {
			continue
		}
		room, _, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, rule.prefix), "/")
		l := rule.limit
		return &l, room
	}
	return nil, ""
}

// counterKey names the Redis counter for a client within the current window.
func counterKey(limit *RateLimit, ip, room string, bucket int64) string {
	if limit.PerRoom {
		return fmt.Sprintf("ratelimit:%s:%s:%s:%d", limit.Name, ip, room, bucket)
	}
	return fmt.Sprintf("ratelimit:%s:%s:%d", limit.Name, ip, bucket)
}

// take counts one request in the current window. Redis errors fail open.
func (rl *RateLimiter) take(ctx context.Context, limit *RateLimit, ip, room string) (allowed bool, remaining int, resetAt time.Time) {
	secs := int64(limit.Window / time.Second)
	bucket := time.Now().Unix() / secs
	resetAt = time.Unix((bucket+1)*secs, 0)
	key := counterKey(limit, ip, room, bucket)

	pipe := rl.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, 2*limit.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		rl.logger.Warn().Err(err).Str("limit", limit.Name).Msg("rate limit check failed, allowing request")
		return true, limit.Requests, resetAt
	}

	count := int(incr.Val())
	return count <= limit.Requests, max(limit.Requests-count, 0), resetAt
}

// Middleware returns the rate limiting middleware.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	if rl.client == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit, room := rl.findLimit(r)
		if limit == nil {
			next.ServeHTTP(w, r)
			return
		}

		ip := RealIP(r)
		if rl.isWhitelisted(ip) {
			next.ServeHTTP(w, r)
			return
		}

		allowed, remaining, resetAt := rl.take(r.Context(), limit, ip, room)

		h := w.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(limit.Requests))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

		if !allowed {
			metrics.RateLimitHits.WithLabelValues(limit.Name).Inc()
			rl.logger.Warn().
				Str("event", "rate_limit_exceeded").
				Str("limit", limit.Name).
				Str("ip", ip).
				Str("room", room).
				Msg("rate limit exceeded")

			h.Set("Retry-After", strconv.Itoa(int(time.Until(resetAt).Seconds())+1))
			writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}
