package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/rakhabima/Boros-Lu-Miskin/internal/errors"
	"github.com/rakhabima/Boros-Lu-Miskin/internal/httputil"
	"github.com/rakhabima/Boros-Lu-Miskin/internal/model"
	"github.com/rakhabima/Boros-Lu-Miskin/internal/repository"
	"github.com/rakhabima/Boros-Lu-Miskin/internal/service"
	"github.com/rakhabima/Boros-Lu-Miskin/internal/util"
)

type contextKey string

const (
	SessionCookie = "bl_session"

	UserContextKey    contextKey = "user"
	SessionContextKey contextKey = "session"
)

func GetUser(ctx context.Context) *model.User {
	if user, ok := ctx.Value(UserContextKey).(*model.User); ok {
		return user
	}
	return nil
}

func GetSession(ctx context.Context) *model.Session {
	if sess, ok := ctx.Value(SessionContextKey).(*model.Session); ok {
		return sess
	}
	return nil
}

// SessionMiddleware loads the session row referenced by the request cookie
// and resolves the caller's identity. Handler rejects unresolved requests
// with a 401 envelope carrying the specific reason code; Attach only
// decorates the context, leaving rejection to the handler.
type SessionMiddleware struct {
	sessionRepo   repository.SessionRepository
	resolver      *service.IdentityResolver
	sessionSecret string
}

func NewSessionMiddleware(
	sessionRepo repository.SessionRepository,
	resolver *service.IdentityResolver,
	sessionSecret string,
) *SessionMiddleware {
	return &SessionMiddleware{
		sessionRepo:   sessionRepo,
		resolver:      resolver,
		sessionSecret: sessionSecret,
	}
}

func (m *SessionMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ctx, err := m.resolve(r)
		if err != nil {
			log.Error().Err(err).Msg("session middleware: identity resolution failed")
			httputil.WriteError(w, r, apperrors.Database(err))
			return
		}

		if !identity.Authenticated {
			code := apperrors.ErrorCode("AUTH_" + string(identity.Reason))
			httputil.Fail(w, r, http.StatusUnauthorized, string(code), "Unauthorized", nil, nil)
			return
		}

		ctx = context.WithValue(ctx, UserContextKey, identity.User)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Attach resolves identity without enforcing it. Routes that behave
// differently for anonymous callers (for example /auth/me) use this and
// inspect the context themselves.
func (m *SessionMiddleware) Attach(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ctx, err := m.resolve(r)
		if err != nil {
			log.Error().Err(err).Msg("session middleware: identity resolution failed")
			httputil.WriteError(w, r, apperrors.Database(err))
			return
		}

		if identity.Authenticated {
			ctx = context.WithValue(ctx, UserContextKey, identity.User)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *SessionMiddleware) resolve(r *http.Request) (service.Identity, context.Context, error) {
	ctx := r.Context()

	sess, err := m.loadSession(r)
	if err != nil {
		return service.Identity{}, ctx, err
	}
	if sess != nil {
		ctx = context.WithValue(ctx, SessionContextKey, sess)
	}

	identity, err := m.resolver.Resolve(ctx, sess, GetUser(ctx))
	if err != nil {
		return service.Identity{}, ctx, err
	}
	return identity, ctx, nil
}

func (m *SessionMiddleware) loadSession(r *http.Request) (*model.Session, error) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}

	tokenHash := util.HmacSHA256(m.sessionSecret, cookie.Value)
	return m.sessionRepo.FindByTokenHash(r.Context(), tokenHash)
}

func SetSessionCookie(w http.ResponseWriter, token string, maxAge time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:   SessionCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}
