package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/example/jewel-storefront/internal/auth"
)

const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
	LoginPath          = "/admin/login"
)

// respondError writes a JSON error response
func respondError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// ExtractToken extracts JWT token from cookie or Authorization header
func ExtractToken(r *http.Request) string {
	// Try cookie first (for browser)
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	// Fall back to Authorization header (for API clients)
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return ""
}

// Verifier resolves an access token into the admin's claims.
type Verifier interface {
	Verify(accessToken string) (*auth.Claims, error)
}

type contextKey string

const sessionContextKey contextKey = "session"

// RequireSession rejects requests without a valid admin session. Browsers
// are sent to the login page; API clients get a 401.
func RequireSession(verifier Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := ExtractToken(r)
			if tokenString == "" {
				deny(w, r, "unauthorized")
				return
			}

			claims, err := verifier.Verify(tokenString)
			if err != nil {
				deny(w, r, "invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), claims)))
		})
	}
}

func deny(w http.ResponseWriter, r *http.Request, message string) {
	if wantsHTML(r) {
		http.Redirect(w, r, LoginPath, http.StatusSeeOther)
		return
	}
	respondError(w, message, http.StatusUnauthorized)
}

func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

// WithSession stores claims in ctx.
func WithSession(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, sessionContextKey, claims)
}

// SessionFromContext retrieves the admin session put there by RequireSession.
func SessionFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(sessionContextKey).(*auth.Claims)
	return claims, ok && claims != nil
}
