package handler

import (
	"net/http"
	"time"

	"github.com/rakhabima/Boros-Lu-Miskin/internal/config"
	apperrors "github.com/rakhabima/Boros-Lu-Miskin/internal/errors"
	"github.com/rakhabima/Boros-Lu-Miskin/internal/httputil"
	"github.com/rakhabima/Boros-Lu-Miskin/internal/middleware"
	"github.com/rakhabima/Boros-Lu-Miskin/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
	sessionTTL  time.Duration
	secure      bool
}

func NewAuthHandler(
	authService *service.AuthService,
	sessionTTL time.Duration,
	secureCookies bool,
) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		sessionTTL:  sessionTTL,
		secure:      secureCookies,
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (req *credentialsRequest) missing(requireName bool) []string {
	var fields []string
	if req.Email == "" {
		fields = append(fields, "email")
	}
	if req.Password == "" {
		fields = append(fields, "password")
	}
	if requireName && req.Name == "" {
		fields = append(fields, "name")
	}
	return fields
}

// POST /auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if fields := req.missing(true); len(fields) > 0 {
		writeError(w, r, apperrors.MissingFields(fields))
		return
	}
	if len(req.Password) < config.MinPasswordLength {
		writeError(w, r, apperrors.ValidationError("Password too short").
			WithDetails(map[string]any{"field": "password", "minLength": config.MinPasswordLength}))
		return
	}

	user, token, err := h.authService.Signup(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}

	middleware.SetSessionCookie(w, token, h.sessionTTL, h.secure)
	httputil.Success(w, r, http.StatusCreated, "SIGNUP_SUCCESS", "Account created", user, httputil.Authenticated())
}

// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if fields := req.missing(false); len(fields) > 0 {
		writeError(w, r, apperrors.MissingFields(fields))
		return
	}

	user, token, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	middleware.SetSessionCookie(w, token, h.sessionTTL, h.secure)
	httputil.Success(w, r, http.StatusOK, "LOGIN_SUCCESS", "Logged in", user, httputil.Authenticated())
}

// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookie); err == nil && cookie.Value != "" {
		if err := h.authService.Logout(r.Context(), cookie.Value); err != nil {
			writeError(w, r, err)
			return
		}
	}

	middleware.ClearSessionCookie(w)
	httputil.Success(w, r, http.StatusOK, "LOGOUT_SUCCESS", "Logged out", nil, nil)
}

// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeError(w, r, apperrors.Unauthenticated(apperrors.ErrCodeSessionMissing))
		return
	}
	httputil.Success(w, r, http.StatusOK, "ME_SUCCESS", "Current user", user, httputil.Authenticated())
}
