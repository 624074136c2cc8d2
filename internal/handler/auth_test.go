package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rakhabima/Boros-Lu-Miskin/internal/middleware"
	"github.com/rakhabima/Boros-Lu-Miskin/internal/model"
	"github.com/rakhabima/Boros-Lu-Miskin/internal/service"
	"github.com/rakhabima/Boros-Lu-Miskin/internal/util"
)

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) FindByGoogleID(ctx context.Context, googleID string) (*model.User, error) {
	args := m.Called(ctx, googleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) Create(ctx context.Context, params model.CreateUserParams) (*model.User, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) SetPassword(ctx context.Context, id int64, passwordHash, name string) (*model.User, error) {
	args := m.Called(ctx, id, passwordHash, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) LinkGoogle(ctx context.Context, id int64, googleID string, avatarURL *string) (*model.User, error) {
	args := m.Called(ctx, id, googleID, avatarURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) UpdateLastLogin(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockSessionRepo struct {
	mock.Mock
}

func (m *mockSessionRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.Session, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *mockSessionRepo) Create(ctx context.Context, params model.CreateSessionParams) (*model.Session, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *mockSessionRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func newAuthHandler(userRepo *mockUserRepo, sessionRepo *mockSessionRepo) *AuthHandler {
	authSvc := service.NewAuthService(userRepo, sessionRepo, "test-session-secret", time.Hour)
	return NewAuthHandler(authSvc, time.Hour, false)
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			return c
		}
	}
	return nil
}

func TestAuthSignup(t *testing.T) {
	t.Run("creates account and sets session cookie", func(t *testing.T) {
		userRepo := new(mockUserRepo)
		sessionRepo := new(mockSessionRepo)
		userRepo.On("FindByEmail", mock.Anything, "a@example.com").Return(nil, nil).Once()
		userRepo.On("Create", mock.Anything, mock.MatchedBy(func(p model.CreateUserParams) bool {
			return p.Email != nil && *p.Email == "a@example.com" && p.Name == "Rakha"
		})).Return(&model.User{ID: 1, Name: "Rakha"}, nil).Once()
		sessionRepo.On("Create", mock.Anything, mock.Anything).
			Return(&model.Session{ID: "sess-1"}, nil).Once()

		h := newAuthHandler(userRepo, sessionRepo)
		req := httptest.NewRequest("POST", "/auth/signup",
			strings.NewReader(`{"email":"a@example.com","password":"correct-horse","name":"Rakha"}`))
		rec := httptest.NewRecorder()

		h.Signup(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.True(t, env.Success)
		assert.Equal(t, "SIGNUP_SUCCESS", env.Code)

		cookie := sessionCookie(rec)
		require.NotNil(t, cookie)
		assert.NotEmpty(t, cookie.Value)
		assert.True(t, cookie.HttpOnly)
		userRepo.AssertExpectations(t)
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		h := newAuthHandler(new(mockUserRepo), new(mockSessionRepo))
		req := httptest.NewRequest("POST", "/auth/signup",
			strings.NewReader(`{"email":"a@example.com"}`))
		rec := httptest.NewRecorder()

		h.Signup(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "VALIDATION_ERROR", decodeEnvelope(t, rec).Code)
	})

	t.Run("rejects short password", func(t *testing.T) {
		h := newAuthHandler(new(mockUserRepo), new(mockSessionRepo))
		req := httptest.NewRequest("POST", "/auth/signup",
			strings.NewReader(`{"email":"a@example.com","password":"short","name":"Rakha"}`))
		rec := httptest.NewRecorder()

		h.Signup(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("email already registered is a conflict", func(t *testing.T) {
		hash := "$2a$10$existinghash"
		userRepo := new(mockUserRepo)
		userRepo.On("FindByEmail", mock.Anything, "a@example.com").
			Return(&model.User{ID: 1, PasswordHash: &hash}, nil).Once()

		h := newAuthHandler(userRepo, new(mockSessionRepo))
		req := httptest.NewRequest("POST", "/auth/signup",
			strings.NewReader(`{"email":"a@example.com","password":"correct-horse","name":"Rakha"}`))
		rec := httptest.NewRecorder()

		h.Signup(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "EMAIL_IN_USE", decodeEnvelope(t, rec).Code)
		assert.Nil(t, sessionCookie(rec))
	})

	t.Run("rejects undecodable body", func(t *testing.T) {
		h := newAuthHandler(new(mockUserRepo), new(mockSessionRepo))
		req := httptest.NewRequest("POST", "/auth/signup", strings.NewReader("not json"))
		rec := httptest.NewRecorder()

		h.Signup(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAuthLogin(t *testing.T) {
	password := "correct-horse"
	hash, _ := util.HashPassword(password)
	user := &model.User{ID: 1, Name: "Rakha", PasswordHash: &hash}

	t.Run("valid credentials open a session", func(t *testing.T) {
		userRepo := new(mockUserRepo)
		sessionRepo := new(mockSessionRepo)
		userRepo.On("FindByEmail", mock.Anything, "a@example.com").Return(user, nil).Once()
		userRepo.On("UpdateLastLogin", mock.Anything, int64(1)).Return(nil).Once()
		sessionRepo.On("Create", mock.Anything, mock.Anything).
			Return(&model.Session{ID: "sess-1"}, nil).Once()

		h := newAuthHandler(userRepo, sessionRepo)
		req := httptest.NewRequest("POST", "/auth/login",
			strings.NewReader(`{"email":"a@example.com","password":"correct-horse"}`))
		rec := httptest.NewRecorder()

		h.Login(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "LOGIN_SUCCESS", decodeEnvelope(t, rec).Code)
		require.NotNil(t, sessionCookie(rec))
	})

	t.Run("wrong password is unauthorized", func(t *testing.T) {
		userRepo := new(mockUserRepo)
		userRepo.On("FindByEmail", mock.Anything, "a@example.com").Return(user, nil).Once()

		h := newAuthHandler(userRepo, new(mockSessionRepo))
		req := httptest.NewRequest("POST", "/auth/login",
			strings.NewReader(`{"email":"a@example.com","password":"wrong"}`))
		rec := httptest.NewRecorder()

		h.Login(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "INVALID_CREDENTIALS", decodeEnvelope(t, rec).Code)
		assert.Nil(t, sessionCookie(rec))
	})

	t.Run("unknown email is indistinguishable from wrong password", func(t *testing.T) {
		userRepo := new(mockUserRepo)
		userRepo.On("FindByEmail", mock.Anything, "nobody@example.com").Return(nil, nil).Once()

		h := newAuthHandler(userRepo, new(mockSessionRepo))
		req := httptest.NewRequest("POST", "/auth/login",
			strings.NewReader(`{"email":"nobody@example.com","password":"whatever"}`))
		rec := httptest.NewRecorder()

		h.Login(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "INVALID_CREDENTIALS", decodeEnvelope(t, rec).Code)
	})
}

func TestAuthLogout(t *testing.T) {
	t.Run("deletes the session and clears the cookie", func(t *testing.T) {
		token := "session-token"
		tokenHash := util.HmacSHA256("test-session-secret", token)
		userRepo := new(mockUserRepo)
		sessionRepo := new(mockSessionRepo)
		sessionRepo.On("FindByTokenHash", mock.Anything, tokenHash).
			Return(&model.Session{ID: "sess-1", TokenHash: tokenHash}, nil).Once()
		sessionRepo.On("Delete", mock.Anything, "sess-1").Return(nil).Once()

		h := newAuthHandler(userRepo, sessionRepo)
		req := httptest.NewRequest("POST", "/auth/logout", nil)
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: token})
		rec := httptest.NewRecorder()

		h.Logout(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "LOGOUT_SUCCESS", decodeEnvelope(t, rec).Code)
		cookie := sessionCookie(rec)
		require.NotNil(t, cookie)
		assert.Less(t, cookie.MaxAge, 0)
		sessionRepo.AssertExpectations(t)
	})

	t.Run("without a cookie still succeeds", func(t *testing.T) {
		h := newAuthHandler(new(mockUserRepo), new(mockSessionRepo))
		req := httptest.NewRequest("POST", "/auth/logout", nil)
		rec := httptest.NewRecorder()

		h.Logout(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestAuthMe(t *testing.T) {
	t.Run("returns the resolved user", func(t *testing.T) {
		h := newAuthHandler(new(mockUserRepo), new(mockSessionRepo))
		req := httptest.NewRequest("GET", "/auth/me", nil)
		ctx := context.WithValue(req.Context(), middleware.UserContextKey, &model.User{ID: 1, Name: "Rakha"})
		rec := httptest.NewRecorder()

		h.Me(rec, req.WithContext(ctx))

		assert.Equal(t, http.StatusOK, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.Equal(t, "ME_SUCCESS", env.Code)
	})

	t.Run("anonymous request is unauthorized", func(t *testing.T) {
		h := newAuthHandler(new(mockUserRepo), new(mockSessionRepo))
		req := httptest.NewRequest("GET", "/auth/me", nil)
		rec := httptest.NewRecorder()

		h.Me(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
