package service

import (
	"context"
	"encoding/json"

	"github.com/rakhabima/Boros-Lu-Miskin/internal/model"
	"github.com/rakhabima/Boros-Lu-Miskin/internal/repository"
)

// Reason says why a request could not be authenticated. Reasons are safe
// to return in a 401 body: they tell an operator whether the cookie was
// missing, the session never carried a claim, or the account behind a
// live session was deleted, without exposing anything else.
type Reason string

const (
	ReasonSessionMissing      Reason = "SESSION_MISSING"
	ReasonSessionEmpty        Reason = "SESSION_EMPTY"
	ReasonSessionUserNotFound Reason = "SESSION_USER_NOT_FOUND"
	ReasonSessionNoUser       Reason = "SESSION_NO_USER"
)

// Identity is the single outcome of resolution: either a concrete user or
// a specific reason, never both and never neither.
type Identity struct {
	Authenticated bool
	User          *model.User
	Reason        Reason
}

func authenticated(user *model.User) Identity {
	return Identity{Authenticated: true, User: user}
}

func unauthenticated(reason Reason) Identity {
	return Identity{Reason: reason}
}

// IdentityResolver answers "who, if anyone, is making this request" with
// one code path regardless of which authentication method produced the
// session.
type IdentityResolver struct {
	userRepo repository.UserRepository
}

func NewIdentityResolver(userRepo repository.UserRepository) *IdentityResolver {
	return &IdentityResolver{userRepo: userRepo}
}

// Resolve evaluates an ordered rule chain, first match wins. attached is
// the request-scoped user cache: when set (a previous resolution within
// the same request), it is trusted without another store lookup, so each
// request costs at most one user read.
func (r *IdentityResolver) Resolve(ctx context.Context, sess *model.Session, attached *model.User) (Identity, error) {
	if sess == nil {
		return unauthenticated(ReasonSessionMissing), nil
	}

	if sess.UserID == nil && attached == nil && emptyData(sess.Data) {
		return unauthenticated(ReasonSessionEmpty), nil
	}

	if sess.UserID != nil && attached == nil {
		user, err := r.userRepo.FindByID(ctx, *sess.UserID)
		if err != nil {
			return Identity{}, err
		}
		if user == nil {
			// The account was deleted after the session was issued.
			return unauthenticated(ReasonSessionUserNotFound), nil
		}
		return authenticated(user), nil
	}

	if attached != nil {
		return authenticated(attached), nil
	}

	return unauthenticated(ReasonSessionNoUser), nil
}

func emptyData(data *json.RawMessage) bool {
	return data == nil || len(*data) == 0 || string(*data) == "null" || string(*data) == "{}"
}
