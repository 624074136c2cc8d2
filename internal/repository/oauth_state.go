package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/rakhabima/Boros-Lu-Miskin/internal/model"
)

type OAuthStateRepository interface {
	FindByState(ctx context.Context, state string) (*model.OAuthState, error)
	Create(ctx context.Context, params model.CreateOAuthStateParams) (*model.OAuthState, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

type oauthStateRepo struct {
	db *sqlx.DB
}

func NewOAuthStateRepository(db *sqlx.DB) OAuthStateRepository {
	return &oauthStateRepo{db: db}
}

func (r *oauthStateRepo) FindByState(ctx context.Context, state string) (*model.OAuthState, error) {
	var s model.OAuthState
	err := r.db.GetContext(ctx, &s, `
		SELECT * FROM oauth_states
		WHERE state = $1 AND expires_at > NOW()
	`, state)
	return HandleNotFound(&s, err)
}

func (r *oauthStateRepo) Create(ctx context.Context, params model.CreateOAuthStateParams) (*model.OAuthState, error) {
	var s model.OAuthState
	err := r.db.GetContext(ctx, &s, `
		INSERT INTO oauth_states (id, state, expires_at)
		VALUES ($1, $2, $3)
		RETURNING *
	`, uuid.NewString(), params.State, params.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *oauthStateRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM oauth_states WHERE id = $1
	`, id)
	return err
}

func (r *oauthStateRepo) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM oauth_states WHERE expires_at < NOW()
	`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
