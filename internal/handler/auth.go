package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/forumfront/internal/model"
	"github.com/sakif/forumfront/internal/service"
)

// AuthHandler serves sign-in, sign-out and the current user's profile.
type AuthHandler struct {
	auth   *service.AuthService
	logger *slog.Logger
}

func NewAuthHandler(auth *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

// HandleLogin signs the session in.
//
// HTTP: POST /auth/login
// REQUEST BODY: {"username": "...", "password": "..."}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	sess, err := sessionFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var creds model.Credentials
	if err := decodeJSON(w, r, &creds); err != nil {
		writeError(w, err)
		return
	}

	u, err := h.auth.Login(r.Context(), sess, creds)
	if err != nil {
		h.logger.Info("login failed", slog.String("username", creds.Username), slog.String("error", err.Error()))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// HandleRegister creates an account and signs the session in.
//
// HTTP: POST /auth/register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	sess, err := sessionFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var creds model.Credentials
	if err := decodeJSON(w, r, &creds); err != nil {
		writeError(w, err)
		return
	}

	u, err := h.auth.Register(r.Context(), sess, creds)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// HandleLogout signs the session out. It always answers 200: local state is
// cleared even when the backend could not be reached.
//
// HTTP: POST /auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	sess, err := sessionFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}
	_ = h.auth.Logout(r.Context(), sess)
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleMe refreshes and returns the signed-in user.
//
// HTTP: GET /api/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	sess, err := sessionFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}
	u, err := h.auth.FetchUserData(r.Context(), sess)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "not signed in",
		})
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// HandleUpdateMe patches the signed-in user's profile.
//
// HTTP: PATCH /api/me
func (h *AuthHandler) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	sess, err := sessionFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var upd model.ProfileUpdate
	if err := decodeJSON(w, r, &upd); err != nil {
		writeError(w, err)
		return
	}

	u, err := h.auth.UpdateUserProfile(r.Context(), sess, upd)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
