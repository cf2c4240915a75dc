package handler

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"paper-registry/internal/domain"
)

// AuthMiddleware validates Supabase JWT tokens
type AuthMiddleware struct {
	validator domain.TokenValidator
	logger    domain.Logger
}

// NewAuthMiddleware creates the middleware. A nil validator lets every
// request through.
func NewAuthMiddleware(validator domain.TokenValidator, logger domain.Logger) *AuthMiddleware {
	return &AuthMiddleware{validator: validator, logger: logger}
}

// Middleware implements mux.MiddlewareFunc
func (m *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	if m.validator == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, http.StatusUnauthorized, "Authorization header required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			writeError(w, http.StatusUnauthorized, "Invalid authorization header format")
			return
		}

		token := parts[1]
		if token == "" {
			writeError(w, http.StatusUnauthorized, "Token required")
			return
		}

		caller, err := m.validator.ValidateToken(token)
		if err != nil {
			m.logger.Warn("Token validation failed", "error", err, "path", r.URL.Path)
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), callerContextKey, caller)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RateLimiter throttles submissions per caller, or per client address when
// the request is unauthenticated.
type RateLimiter struct {
	perMinute int
	limiters  *cache.Cache
	mu        sync.Mutex
	logger    domain.Logger
}

// NewRateLimiter allows perMinute requests per client with an equal burst.
// perMinute <= 0 disables limiting.
func NewRateLimiter(perMinute int, logger domain.Logger) *RateLimiter {
	return &RateLimiter{
		perMinute: perMinute,
		limiters:  cache.New(10*time.Minute, 10*time.Minute),
		logger:    logger,
	}
}

// Middleware implements mux.MiddlewareFunc
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	if l.perMinute <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientKey(r)
		if !l.limiterFor(key).Allow() {
			l.logger.Warn("Rate limit exceeded", "client", key, "path", r.URL.Path)
			w.Header().Set("Retry-After", strconv.Itoa(int(time.Minute.Seconds())/l.perMinute+1))
			writeError(w, http.StatusTooManyRequests, "Too many validation requests. Please try again later.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (l *RateLimiter) limiterFor(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if v, ok := l.limiters.Get(key); ok {
		l.limiters.SetDefault(key, v)
		return v.(*rate.Limiter)
	}
	lim := rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.perMinute)), l.perMinute)
	l.limiters.SetDefault(key, lim)
	return lim
}

func clientKey(r *http.Request) string {
	if caller, ok := GetCallerFromContext(r); ok && caller.ID != "" {
		return "user:" + caller.ID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "addr:" + host
}
