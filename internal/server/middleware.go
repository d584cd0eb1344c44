package server

import (
	"net"
	"net/http"
	"strings"
	"time"

	"casevault/backend/internal/ratelimit"
	"casevault/backend/internal/security"
	"casevault/backend/internal/session"
)

const bearerPrefix = "bearer "

// withOrigin records the caller's IP and user agent in the request context so
// audit entries can carry them.
func withOrigin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithOrigin(r.Context(), ClientIP(r), r.UserAgent())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAuth validates the Bearer access token, checks the bound session is
// still live, records the request as session activity, and sets identity in
// the request context. Requests failing any step get 401.
func requireAuth(tokens *security.TokenProvider, registry *session.Registry, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearer(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing or invalid authorization")
			return
		}
		sessionID, principalID, err := tokens.ValidateAccess(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "missing or invalid authorization")
			return
		}
		monitor := registry.Get(sessionID)
		if monitor == nil || !monitor.IsLive() {
			writeError(w, http.StatusUnauthorized, "session terminated")
			return
		}
		monitor.Activity()

		ctx := WithIdentity(r.Context(), principalID, sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// rateLimit enforces the fixed-window quota per caller, where key derives the
// caller identifier from the request. Rejected requests get 429 without
// reaching the handler.
func rateLimit(limiter *ratelimit.Limiter, maxRequests int, window time.Duration, key func(*http.Request) string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow(key(r), maxRequests, window) {
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ipKey identifies unauthenticated callers by client IP.
func ipKey(r *http.Request) string {
	return "ip:" + ClientIP(r)
}

// sessionKey identifies authenticated callers by session id, falling back to
// client IP when no identity is in the context.
func sessionKey(r *http.Request) string {
	if id, ok := GetSessionID(r.Context()); ok && id != "" {
		return "session:" + id
	}
	return ipKey(r)
}

// extractBearer returns the Bearer token from the Authorization header, or ""
// if missing or malformed.
func extractBearer(r *http.Request) string {
	v := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}

// ClientIP returns the client IP from x-forwarded-for, x-real-ip, or the
// remote address, or "unknown".
func ClientIP(r *http.Request) string {
	if s := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); s != "" {
		if i := strings.Index(s, ","); i > 0 {
			s = strings.TrimSpace(s[:i])
		}
		return s
	}
	if s := strings.TrimSpace(r.Header.Get("X-Real-Ip")); s != "" {
		return s
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}
