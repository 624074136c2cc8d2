package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rakhabima/Boros-Lu-Miskin/internal/audit"
	"github.com/rakhabima/Boros-Lu-Miskin/internal/model"
	"github.com/rakhabima/Boros-Lu-Miskin/internal/repository"
	"github.com/rakhabima/Boros-Lu-Miskin/internal/util"
)

var (
	ErrInvalidState          = errors.New("invalid or expired OAuth state")
	ErrOAuthProviderError    = errors.New("OAuth provider returned an error")
	ErrProviderNotConfigured = errors.New("OAuth provider not configured")
)

const oauthStateTTL = 10 * time.Minute

type OAuthService struct {
	clientID     string
	clientSecret string
	redirectURL  string
	userRepo     repository.UserRepository
	stateRepo    repository.OAuthStateRepository
	authSvc      *AuthService

	// overridable for tests
	tokenURL    string
	userInfoURL string
}

func NewOAuthService(
	clientID, clientSecret, redirectURL string,
	userRepo repository.UserRepository,
	stateRepo repository.OAuthStateRepository,
	authSvc *AuthService,
) *OAuthService {
	return &OAuthService{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURL:  redirectURL,
		userRepo:     userRepo,
		stateRepo:    stateRepo,
		authSvc:      authSvc,
		tokenURL:     "https://oauth2.googleapis.com/token",
		userInfoURL:  "https://www.googleapis.com/oauth2/v2/userinfo",
	}
}

func (s *OAuthService) GetAuthURL(ctx context.Context) (string, error) {
	if s.clientID == "" {
		return "", ErrProviderNotConfigured
	}

	state, err := util.GenerateToken()
	if err != nil {
		return "", err
	}

	_, err = s.stateRepo.Create(ctx, model.CreateOAuthStateParams{
		State:     state,
		ExpiresAt: time.Now().Add(oauthStateTTL),
	})
	if err != nil {
		return "", err
	}

	params := url.Values{
		"client_id":     {s.clientID},
		"redirect_uri":  {s.redirectURL},
		"response_type": {"code"},
		"scope":         {"openid email profile"},
		"state":         {state},
		"access_type":   {"offline"},
		"prompt":        {"select_account"},
	}
	return "https://accounts.google.com/o/oauth2/v2/auth?" + params.Encode(), nil
}

// HandleCallback exchanges the code, reconciles the Google profile with the
// user store (by google_id, then by email, then create) and opens a session.
func (s *OAuthService) HandleCallback(ctx context.Context, code, state string) (*model.User, string, error) {
	storedState, err := s.stateRepo.FindByState(ctx, state)
	if err != nil || storedState == nil {
		return nil, "", ErrInvalidState
	}
	defer s.stateRepo.Delete(ctx, storedState.ID)

	profile, err := s.exchangeCode(ctx, code)
	if err != nil {
		return nil, "", err
	}

	user, err := s.userRepo.FindByGoogleID(ctx, profile.ID)
	if err != nil {
		return nil, "", err
	}

	if user == nil && profile.Email != "" {
		byEmail, err := s.userRepo.FindByEmail(ctx, profile.Email)
		if err != nil {
			return nil, "", err
		}
		if byEmail != nil {
			user, err = s.userRepo.LinkGoogle(ctx, byEmail.ID, profile.ID, optional(profile.AvatarURL))
			if err != nil {
				return nil, "", err
			}
		}
	}

	if user == nil {
		user, err = s.userRepo.Create(ctx, model.CreateUserParams{
			GoogleID:  &profile.ID,
			Email:     optional(profile.Email),
			Name:      profile.Name,
			AvatarURL: optional(profile.AvatarURL),
		})
		if err != nil {
			return nil, "", err
		}
		log.Info().Int64("userId", user.ID).Str("email", profile.Email).Msg("Google user created")
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		log.Warn().Err(err).Int64("userId", user.ID).Msg("failed to update last login")
	}

	token, err := s.authSvc.CreateSession(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}

	audit.Log(audit.Event{Type: audit.EventOAuthLogin, UserID: user.ID})

	return user, token, nil
}

func (s *OAuthService) exchangeCode(ctx context.Context, code string) (*model.OAuthUserProfile, error) {
	data := url.Values{
		"code":          {code},
		"client_id":     {s.clientID},
		"client_secret": {s.clientSecret},
		"redirect_uri":  {s.redirectURL},
		"grant_type":    {"authorization_code"},
	}

	resp, err := http.PostForm(s.tokenURL, data)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read Google token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		log.Error().Int("status", resp.StatusCode).Msg("Google token exchange failed")
		return nil, ErrOAuthProviderError
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+tokenResp.AccessToken)

	client := &http.Client{Timeout: 10 * time.Second}
	userResp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer userResp.Body.Close()

	userBody, err := io.ReadAll(userResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read Google userinfo response: %w", err)
	}
	if userResp.StatusCode != http.StatusOK {
		log.Error().Int("status", userResp.StatusCode).Msg("Google userinfo failed")
		return nil, ErrOAuthProviderError
	}

	var userInfo struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.Unmarshal(userBody, &userInfo); err != nil {
		return nil, err
	}

	name := userInfo.Name
	if name == "" {
		name = "Unknown"
	}

	return &model.OAuthUserProfile{
		ID:        userInfo.ID,
		Email:     userInfo.Email,
		Name:      name,
		AvatarURL: userInfo.Picture,
	}, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
