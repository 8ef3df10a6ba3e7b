// Package httpapi exposes the HTTP surface around the relay: the
// registration and login endpoints, the authenticated profile echo, the
// WebSocket upgrade route and optional static frontend serving.
package httpapi

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
	"strings"

	"chat-relay/errors"
	"chat-relay/services"
)

// CredentialsRequest is the body of both /api/register and /api/login.
type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthHandler serves the account endpoints. Responses always carry an "ok"
// flag so browser clients can branch without inspecting status codes.
type AuthHandler struct {
	service services.IAuthService
	log     *slog.Logger
}

func NewAuthHandler(service services.IAuthService, log *slog.Logger) *AuthHandler {
	return &AuthHandler{service: service, log: log}
}

// Register creates an account and returns its first session token.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeCredentials(w, r)
	if !ok {
		return
	}

	token, err := h.service.Register(req.Username, req.Password)
	switch {
	case err == nil:
		h.writeJSON(w, http.StatusOK, map[string]any{
			"ok": true, "token": string(token), "username": req.Username,
		})
	case stderrors.Is(err, errors.ErrUserAlreadyExists):
		h.writeError(w, http.StatusConflict, "user-exists")
	case stderrors.Is(err, errors.ErrInvalidPassword):
		h.writeError(w, http.StatusBadRequest, "invalid-credentials-format")
	default:
		h.log.Error("Registration failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal")
	}
}

// Login verifies credentials and returns a fresh session token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeCredentials(w, r)
	if !ok {
		return
	}

	token, err := h.service.Login(req.Username, req.Password)
	switch {
	case err == nil:
		h.writeJSON(w, http.StatusOK, map[string]any{
			"ok": true, "token": string(token), "username": req.Username,
		})
	case stderrors.Is(err, errors.ErrInvalidCredentials):
		h.writeError(w, http.StatusUnauthorized, "invalid-credentials")
	default:
		h.log.Error("Login failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal")
	}
}

// Me echoes the identity the auth middleware resolved from the token.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	username, _ := UsernameFromContext(r.Context())
	h.writeJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"user": map[string]string{"username": username},
	})
}

func (h *AuthHandler) decodeCredentials(w http.ResponseWriter, r *http.Request) (CredentialsRequest, bool) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid-json")
		return CredentialsRequest{}, false
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		h.writeError(w, http.StatusBadRequest, "username-password-required")
		return CredentialsRequest{}, false
	}
	return req, true
}

func (h *AuthHandler) writeError(w http.ResponseWriter, status int, code string) {
	h.writeJSON(w, status, map[string]any{"ok": false, "error": code})
}

func (h *AuthHandler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error("Response encoding failed", "error", err)
	}
}
