package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rakhabima/Boros-Lu-Miskin/internal/audit"
	apperrors "github.com/rakhabima/Boros-Lu-Miskin/internal/errors"
	"github.com/rakhabima/Boros-Lu-Miskin/internal/model"
	"github.com/rakhabima/Boros-Lu-Miskin/internal/repository"
	"github.com/rakhabima/Boros-Lu-Miskin/internal/util"
)

type AuthService struct {
	userRepo      repository.UserRepository
	sessionRepo   repository.SessionRepository
	sessionSecret string
	sessionTTL    time.Duration
}

func NewAuthService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	sessionSecret string,
	sessionTTL time.Duration,
) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		sessionRepo:   sessionRepo,
		sessionSecret: sessionSecret,
		sessionTTL:    sessionTTL,
	}
}

// Signup registers an email/password account. An email already holding a
// password credential is a conflict; an email known only through Google
// gets the password attached to the existing account instead of a new row.
func (s *AuthService) Signup(ctx context.Context, email, password, name string) (*model.User, string, error) {
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", apperrors.Database(err)
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		return nil, "", apperrors.Internal("Failed to hash password").WithCause(err)
	}

	var user *model.User
	if existing != nil {
		if existing.PasswordHash != nil {
			return nil, "", apperrors.EmailInUse()
		}
		user, err = s.userRepo.SetPassword(ctx, existing.ID, hash, name)
	} else {
		user, err = s.userRepo.Create(ctx, model.CreateUserParams{
			Email:        &email,
			Name:         name,
			PasswordHash: &hash,
		})
	}
	if err != nil {
		return nil, "", apperrors.Database(err)
	}

	token, err := s.CreateSession(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}

	audit.Log(audit.Event{Type: audit.EventSignup, UserID: user.ID})

	return user, token, nil
}

// Login checks the password and opens a session. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", apperrors.Database(err)
	}

	if user == nil || user.PasswordHash == nil {
		audit.Log(audit.Event{Type: audit.EventLoginFailure, Details: map[string]any{"email": email}})
		return nil, "", apperrors.InvalidCredentials()
	}

	if !util.CheckPasswordHash(password, *user.PasswordHash) {
		audit.Log(audit.Event{Type: audit.EventLoginFailure, UserID: user.ID})
		return nil, "", apperrors.InvalidCredentials()
	}

	token, err := s.CreateSession(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		log.Warn().Err(err).Int64("userId", user.ID).Msg("failed to update last login")
	}

	audit.Log(audit.Event{Type: audit.EventLoginSuccess, UserID: user.ID})

	return user, token, nil
}

// Logout destroys the session row behind the cookie token. A token that
// resolves to nothing is already logged out.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	tokenHash := util.HmacSHA256(s.sessionSecret, token)
	sess, err := s.sessionRepo.FindByTokenHash(ctx, tokenHash)
	if err != nil {
		return apperrors.Database(err)
	}
	if sess == nil {
		return nil
	}

	if err := s.sessionRepo.Delete(ctx, sess.ID); err != nil {
		return apperrors.Database(err)
	}

	if sess.UserID != nil {
		audit.Log(audit.Event{Type: audit.EventLogout, UserID: *sess.UserID})
	}
	return nil
}

// CreateSession issues an opaque token and stores its HMAC hash with the
// userId claim. The raw token exists only in the cookie.
func (s *AuthService) CreateSession(ctx context.Context, userID int64) (string, error) {
	token, err := util.GenerateToken()
	if err != nil {
		return "", apperrors.Internal("Failed to generate session token").WithCause(err)
	}

	tokenHash := util.HmacSHA256(s.sessionSecret, token)
	_, err = s.sessionRepo.Create(ctx, model.CreateSessionParams{
		TokenHash: tokenHash,
		UserID:    &userID,
		ExpiresAt: time.Now().Add(s.sessionTTL),
	})
	if err != nil {
		return "", apperrors.Database(err)
	}

	return token, nil
}
