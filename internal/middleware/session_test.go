package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rakhabima/Boros-Lu-Miskin/internal/model"
	"github.com/rakhabima/Boros-Lu-Miskin/internal/service"
	"github.com/rakhabima/Boros-Lu-Miskin/internal/util"
)

type mockSessionRepo struct {
	findByTokenHashFunc func(ctx context.Context, tokenHash string) (*model.Session, error)
}

func (m *mockSessionRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.Session, error) {
	if m.findByTokenHashFunc != nil {
		return m.findByTokenHashFunc(ctx, tokenHash)
	}
	return nil, nil
}

func (m *mockSessionRepo) Create(ctx context.Context, params model.CreateSessionParams) (*model.Session, error) {
	return nil, nil
}

func (m *mockSessionRepo) Delete(ctx context.Context, id string) error {
	return nil
}

func (m *mockSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	return 0, nil
}

type mockUserRepo struct {
	findByIDFunc func(ctx context.Context, id int64) (*model.User, error)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return nil, nil
}

func (m *mockUserRepo) FindByGoogleID(ctx context.Context, googleID string) (*model.User, error) {
	return nil, nil
}

func (m *mockUserRepo) Create(ctx context.Context, params model.CreateUserParams) (*model.User, error) {
	return nil, nil
}

func (m *mockUserRepo) SetPassword(ctx context.Context, id int64, passwordHash, name string) (*model.User, error) {
	return nil, nil
}

func (m *mockUserRepo) LinkGoogle(ctx context.Context, id int64, googleID string, avatarURL *string) (*model.User, error) {
	return nil, nil
}

func (m *mockUserRepo) UpdateLastLogin(ctx context.Context, id int64) error {
	return nil
}

type failEnvelope struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
}

func decodeFail(t *testing.T, rec *httptest.ResponseRecorder) failEnvelope {
	t.Helper()
	var env failEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestSessionMiddleware(t *testing.T) {
	const secret = "test-session-secret"

	userID := int64(7)
	testUser := &model.User{ID: userID, Name: "Budi"}
	validToken := "valid-token"
	validTokenHash := util.HmacSHA256(secret, validToken)
	testSession := &model.Session{
		ID:        "sess-123",
		TokenHash: validTokenHash,
		UserID:    &userID,
		ExpiresAt: time.Now().Add(time.Hour),
	}

	newMiddleware := func(sessionRepo *mockSessionRepo, userRepo *mockUserRepo) *SessionMiddleware {
		return NewSessionMiddleware(sessionRepo, service.NewIdentityResolver(userRepo), secret)
	}

	t.Run("allows request with valid session cookie", func(t *testing.T) {
		sessionRepo := &mockSessionRepo{
			findByTokenHashFunc: func(ctx context.Context, tokenHash string) (*model.Session, error) {
				if tokenHash == validTokenHash {
					return testSession, nil
				}
				return nil, nil
			},
		}
		userRepo := &mockUserRepo{
			findByIDFunc: func(ctx context.Context, id int64) (*model.User, error) {
				if id == userID {
					return testUser, nil
				}
				return nil, nil
			},
		}

		m := newMiddleware(sessionRepo, userRepo)
		handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUser(r.Context())
			require.NotNil(t, user)
			assert.Equal(t, userID, user.ID)
			sess := GetSession(r.Context())
			require.NotNil(t, sess)
			assert.Equal(t, "sess-123", sess.ID)
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest("GET", "/test", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: validToken})
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("rejects request without cookie", func(t *testing.T) {
		m := newMiddleware(&mockSessionRepo{}, &mockUserRepo{})
		handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		}))

		req := httptest.NewRequest("GET", "/test", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		env := decodeFail(t, rec)
		assert.False(t, env.Success)
		assert.Equal(t, "AUTH_SESSION_MISSING", env.Code)
	})

	t.Run("rejects request with unknown token", func(t *testing.T) {
		sessionRepo := &mockSessionRepo{
			findByTokenHashFunc: func(ctx context.Context, tokenHash string) (*model.Session, error) {
				return nil, nil
			},
		}

		m := newMiddleware(sessionRepo, &mockUserRepo{})
		handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		}))

		req := httptest.NewRequest("GET", "/test", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "forged-token"})
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "AUTH_SESSION_MISSING", decodeFail(t, rec).Code)
	})

	t.Run("rejects session without a user claim", func(t *testing.T) {
		data := json.RawMessage(`{"theme":"dark"}`)
		anonSession := &model.Session{
			ID:        "sess-anon",
			TokenHash: validTokenHash,
			Data:      &data,
			ExpiresAt: time.Now().Add(time.Hour),
		}
		sessionRepo := &mockSessionRepo{
			findByTokenHashFunc: func(ctx context.Context, tokenHash string) (*model.Session, error) {
				return anonSession, nil
			},
		}

		m := newMiddleware(sessionRepo, &mockUserRepo{})
		handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		}))

		req := httptest.NewRequest("GET", "/test", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: validToken})
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "AUTH_SESSION_NO_USER", decodeFail(t, rec).Code)
	})

	t.Run("rejects session whose user was deleted", func(t *testing.T) {
		sessionRepo := &mockSessionRepo{
			findByTokenHashFunc: func(ctx context.Context, tokenHash string) (*model.Session, error) {
				return testSession, nil
			},
		}
		userRepo := &mockUserRepo{
			findByIDFunc: func(ctx context.Context, id int64) (*model.User, error) {
				return nil, nil
			},
		}

		m := newMiddleware(sessionRepo, userRepo)
		handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		}))

		req := httptest.NewRequest("GET", "/test", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: validToken})
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "AUTH_SESSION_USER_NOT_FOUND", decodeFail(t, rec).Code)
	})

	t.Run("returns 500 on session store error", func(t *testing.T) {
		sessionRepo := &mockSessionRepo{
			findByTokenHashFunc: func(ctx context.Context, tokenHash string) (*model.Session, error) {
				return nil, errors.New("database error")
			},
		}

		m := newMiddleware(sessionRepo, &mockUserRepo{})
		handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		}))

		req := httptest.NewRequest("GET", "/test", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: validToken})
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("Attach lets anonymous requests through", func(t *testing.T) {
		m := newMiddleware(&mockSessionRepo{}, &mockUserRepo{})
		handler := m.Attach(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Nil(t, GetUser(r.Context()))
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest("GET", "/test", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestGetUser(t *testing.T) {
	t.Run("returns user from context", func(t *testing.T) {
		user := &model.User{ID: 42}
		ctx := context.WithValue(context.Background(), UserContextKey, user)

		result := GetUser(ctx)

		require.NotNil(t, result)
		assert.Equal(t, int64(42), result.ID)
	})

	t.Run("returns nil when no user in context", func(t *testing.T) {
		assert.Nil(t, GetUser(context.Background()))
	})
}

func TestSessionCookieHelpers(t *testing.T) {
	t.Run("SetSessionCookie writes httponly lax cookie", func(t *testing.T) {
		rec := httptest.NewRecorder()
		SetSessionCookie(rec, "token-value", time.Hour, true)

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		c := cookies[0]
		assert.Equal(t, SessionCookie, c.Name)
		assert.Equal(t, "token-value", c.Value)
		assert.True(t, c.HttpOnly)
		assert.True(t, c.Secure)
		assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
		assert.Equal(t, 3600, c.MaxAge)
	})

	t.Run("ClearSessionCookie expires the cookie", func(t *testing.T) {
		rec := httptest.NewRecorder()
		ClearSessionCookie(rec)

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, SessionCookie, cookies[0].Name)
		assert.Less(t, cookies[0].MaxAge, 0)
	})
}
