package handler

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rakhabima/Boros-Lu-Miskin/internal/middleware"
	"github.com/rakhabima/Boros-Lu-Miskin/internal/service"
)

type OAuthHandler struct {
	oauthService   *service.OAuthService
	frontendOrigin string
	sessionTTL     time.Duration
	secure         bool
}

func NewOAuthHandler(
	oauthService *service.OAuthService,
	frontendOrigin string,
	sessionTTL time.Duration,
	secureCookies bool,
) *OAuthHandler {
	return &OAuthHandler{
		oauthService:   oauthService,
		frontendOrigin: frontendOrigin,
		sessionTTL:     sessionTTL,
		secure:         secureCookies,
	}
}

// GET /auth/google
func (h *OAuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	authURL, err := h.oauthService.GetAuthURL(r.Context())
	if err != nil {
		if errors.Is(err, service.ErrProviderNotConfigured) {
			h.redirectWithError(w, r, "google_not_configured")
			return
		}
		log.Error().Err(err).Msg("failed to build Google auth URL")
		h.redirectWithError(w, r, "oauth_failed")
		return
	}

	http.Redirect(w, r, authURL, http.StatusFound)
}

// GET /auth/google/callback
//
// The browser lands here, not an API client, so every outcome is a
// redirect back to the frontend rather than an envelope.
func (h *OAuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" || state == "" {
		h.redirectWithError(w, r, "missing_code")
		return
	}

	user, token, err := h.oauthService.HandleCallback(r.Context(), code, state)
	if err != nil {
		log.Warn().Err(err).Msg("Google OAuth callback failed")
		h.redirectWithError(w, r, "oauth_failed")
		return
	}

	middleware.SetSessionCookie(w, token, h.sessionTTL, h.secure)
	log.Info().Int64("userId", user.ID).Msg("Google login completed")
	http.Redirect(w, r, h.frontendOrigin+"/", http.StatusFound)
}

func (h *OAuthHandler) redirectWithError(w http.ResponseWriter, r *http.Request, reason string) {
	http.Redirect(w, r, h.frontendOrigin+"/?error="+url.QueryEscape(reason), http.StatusFound)
}
