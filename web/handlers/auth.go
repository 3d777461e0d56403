package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/scrypster/kindred/internal/auth"
	"github.com/scrypster/kindred/internal/storage"
)

// AuthHandlers contains HTTP handlers for registration, login, and sessions.
type AuthHandlers struct {
	service       *auth.Service
	secureCookies bool
}

// NewAuthHandlers creates a new AuthHandlers instance.
func NewAuthHandlers(service *auth.Service, secureCookies bool) *AuthHandlers {
	return &AuthHandlers{service: service, secureCookies: secureCookies}
}

// Register handles POST /api/auth/register.
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	account, err := h.service.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrInvalidInput):
			respondError(w, http.StatusBadRequest, "username and password are required")
		case errors.Is(err, storage.ErrConflict):
			respondError(w, http.StatusBadRequest, "username is already taken")
		default:
			respondError(w, http.StatusInternalServerError, "registration failed")
		}
		return
	}
	respondJSON(w, http.StatusCreated, AccountResponse{Success: true, User: account})
}

// Login handles POST /api/auth/login.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	account, session, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrUnauthorized) {
			respondError(w, http.StatusUnauthorized, "invalid username or password")
			return
		}
		respondError(w, http.StatusInternalServerError, "login failed")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	respondJSON(w, http.StatusOK, AccountResponse{Success: true, User: account})
}

// Logout handles POST /api/auth/logout. Idempotent.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(auth.SessionCookieName); err == nil {
		if err := h.service.Logout(r.Context(), cookie.Value); err != nil {
			respondError(w, http.StatusInternalServerError, "logout failed")
			return
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// Me handles GET /api/auth/me.
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(auth.SessionCookieName)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "not logged in")
		return
	}

	account, err := h.service.Authenticate(r.Context(), cookie.Value)
	if err != nil {
		if errors.Is(err, auth.ErrUnauthorized) {
			respondError(w, http.StatusUnauthorized, "not logged in")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load account")
		return
	}
	respondJSON(w, http.StatusOK, AccountResponse{Success: true, User: account})
}
