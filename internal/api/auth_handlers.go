package api

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/example/jewel-storefront/internal/api/middleware"
	"github.com/example/jewel-storefront/internal/auth"
)

const refreshCookiePath = "/api/admin/refresh"

// AuthHandlers handles the admin session endpoints.
type AuthHandlers struct {
	authenticator *auth.Authenticator
	secureCookies bool
}

func NewAuthHandlers(authenticator *auth.Authenticator, secureCookies bool) *AuthHandlers {
	return &AuthHandlers{authenticator: authenticator, secureCookies: secureCookies}
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// SessionResponse is returned by login and refresh. Browsers use the
// cookies; API clients use the tokens in the body.
type SessionResponse struct {
	Email string `json:"email"`
	auth.TokenPair
}

type MeResponse struct {
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	pair, err := h.authenticator.Login(req.Email, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		respondJSONError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}
	if err != nil {
		log.Printf("[Auth] Login failed: %v", err)
		respondJSONError(w, "Login failed", http.StatusInternalServerError)
		return
	}

	h.setAuthCookies(w, r, pair)
	log.Printf("[Auth] Admin logged in")
	respondJSON(w, http.StatusOK, SessionResponse{Email: h.authenticator.Email(), TokenPair: pair})
}

// Refresh reads the refresh token from its cookie, or from the body for API clients.
func (h *AuthHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var token string
	if cookie, err := r.Cookie(middleware.RefreshTokenCookie); err == nil {
		token = cookie.Value
	}
	if token == "" && r.ContentLength != 0 {
		var req RefreshRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		token = req.RefreshToken
	}
	if token == "" {
		respondJSONError(w, "Refresh token required", http.StatusUnauthorized)
		return
	}

	pair, err := h.authenticator.Refresh(token)
	if err != nil {
		h.clearAuthCookies(w)
		respondJSONError(w, "Invalid refresh token", http.StatusUnauthorized)
		return
	}

	h.setAuthCookies(w, r, pair)
	respondJSON(w, http.StatusOK, SessionResponse{Email: h.authenticator.Email(), TokenPair: pair})
}

func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearAuthCookies(w)
	respondJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// Me reports the session resolved by middleware.RequireSession.
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		respondJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	resp := MeResponse{Email: claims.Email, Role: claims.Role}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.Time
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *AuthHandlers) setAuthCookies(w http.ResponseWriter, r *http.Request, pair auth.TokenPair) {
	secure := h.secureCookies || r.TLS != nil

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    pair.AccessToken,
		Path:     "/",
		Expires:  pair.AccessExpiresAt,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.RefreshTokenCookie,
		Value:    pair.RefreshToken,
		Path:     refreshCookiePath,
		Expires:  pair.RefreshExpiresAt,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandlers) clearAuthCookies(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.RefreshTokenCookie,
		Value:    "",
		Path:     refreshCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
	})
}
