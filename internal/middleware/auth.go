package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/jaybesin/logistics-console/internal/auth"
	"github.com/jaybesin/logistics-console/internal/models"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	UserContextKey contextKey = "user"
)

// AuthMiddleware provides JWT authentication middleware
type AuthMiddleware struct {
	authService *auth.Service
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(authService *auth.Service) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
	}
}

// Authenticate validates the bearer token and stores its claims in the
// request context. Routes that need no token are simply not wrapped.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		token, err := m.authService.ExtractTokenFromHeader(authHeader)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}
		claims, err := m.authService.ValidateToken(token)
		if err != nil {
			log.WithField("path", r.URL.Path).WithError(err).Debug("Rejected token")
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// guard lets the request through when allowed accepts the caller's claims.
// It must run behind Authenticate.
func guard(allowed func(*models.Claims) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetUserFromContext(r.Context())
			if !ok {
				http.Error(w, "User context not found", http.StatusUnauthorized)
				return
			}
			if !allowed(claims) {
				log.WithFields(log.Fields{"email": claims.Email, "role": claims.Role, "path": r.URL.Path}).Debug("Access denied")
				http.Error(w, "Insufficient permissions", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole admits callers whose role is at least requiredRole.
func (m *AuthMiddleware) RequireRole(requiredRole models.Role) func(http.Handler) http.Handler {
	return guard(func(c *models.Claims) bool { return c.Role.Satisfies(requiredRole) })
}

// RequirePermission admits callers whose role grants action. A valid token
// implies an active account.
func (m *AuthMiddleware) RequirePermission(action string) func(http.Handler) http.Handler {
	return guard(func(c *models.Claims) bool {
		u := models.User{Role: c.Role, IsActive: true}
		return u.HasPermission(action)
	})
}

// GetUserFromContext extracts user claims from request context
func GetUserFromContext(ctx context.Context) (*models.Claims, bool) {
	claims, ok := ctx.Value(UserContextKey).(*models.Claims)
	return claims, ok
}

// RateLimiter is a sliding-window limit of requests per client IP.
type RateLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu   sync.Mutex
	hits map[string][]time.Time
}

// NewRateLimiter allows limit requests per client in any window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:  limit,
		window: window,
		now:    time.Now,
		hits:   make(map[string][]time.Time),
	}
}

// allow records a hit for client and reports whether it is within the limit.
// When it is not, wait is how long until the oldest hit leaves the window.
func (l *RateLimiter) allow(client string) (ok bool, wait time.Duration) {
	now := l.now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.hits[client][:0]
	for _, ts := range l.hits[client] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.limit {
		l.hits[client] = kept
		return false, kept[0].Add(l.window).Sub(now)
	}
	l.hits[client] = append(kept, now)
	return true, 0
}

// Limit answers 429 with Retry-After once a client exceeds the limit.
func (l *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := getClientIP(r)
		ok, wait := l.allow(client)
		if !ok {
			secs := int(wait.Round(time.Second) / time.Second)
			if secs < 1 {
				secs = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			log.WithFields(log.Fields{"client": client, "path": r.URL.Path}).Warn("Rate limit exceeded")
			http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// getClientIP prefers proxy headers over the socket address.
func getClientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return strings.TrimSpace(strings.Split(ip, ",")[0])
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
