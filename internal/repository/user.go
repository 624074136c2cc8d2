package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/rakhabima/Boros-Lu-Miskin/internal/model"
)

type UserRepository interface {
	FindByID(ctx context.Context, id int64) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByGoogleID(ctx context.Context, googleID string) (*model.User, error)
	Create(ctx context.Context, params model.CreateUserParams) (*model.User, error)
	SetPassword(ctx context.Context, id int64, passwordHash, name string) (*model.User, error)
	LinkGoogle(ctx context.Context, id int64, googleID string, avatarURL *string) (*model.User, error)
	UpdateLastLogin(ctx context.Context, id int64) error
}

type userRepo struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	err := r.db.GetContext(ctx, &u, `
		SELECT * FROM users WHERE id = $1
	`, id)
	return HandleNotFound(&u, err)
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := r.db.GetContext(ctx, &u, `
		SELECT * FROM users WHERE email = $1
	`, email)
	return HandleNotFound(&u, err)
}

func (r *userRepo) FindByGoogleID(ctx context.Context, googleID string) (*model.User, error) {
	var u model.User
	err := r.db.GetContext(ctx, &u, `
		SELECT * FROM users WHERE google_id = $1
	`, googleID)
	return HandleNotFound(&u, err)
}

func (r *userRepo) Create(ctx context.Context, params model.CreateUserParams) (*model.User, error) {
	var u model.User
	err := r.db.GetContext(ctx, &u, `
		INSERT INTO users (google_id, email, name, avatar_url, password_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING *
	`, params.GoogleID, params.Email, params.Name, params.AvatarURL, params.PasswordHash)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) SetPassword(ctx context.Context, id int64, passwordHash, name string) (*model.User, error) {
	var u model.User
	err := r.db.GetContext(ctx, &u, `
		UPDATE users SET
			password_hash = $2,
			name = $3
		WHERE id = $1
		RETURNING *
	`, id, passwordHash, name)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) LinkGoogle(ctx context.Context, id int64, googleID string, avatarURL *string) (*model.User, error) {
	var u model.User
	err := r.db.GetContext(ctx, &u, `
		UPDATE users SET
			google_id = $2,
			avatar_url = COALESCE($3, avatar_url)
		WHERE id = $1
		RETURNING *
	`, id, googleID, avatarURL)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) UpdateLastLogin(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET last_login_at = NOW() WHERE id = $1
	`, id)
	return err
}
