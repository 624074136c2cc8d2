package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/rakhabima/Boros-Lu-Miskin/internal/model"
)

type TelegramLinkRepository interface {
	FindPending(ctx context.Context, code string, appUserID int64) (*model.TelegramLink, error)
	FindConfirmedByUser(ctx context.Context, appUserID int64) (*model.TelegramLink, error)
	FindConfirmedByTelegramID(ctx context.Context, telegramID int64) (*model.TelegramLink, error)
	DeletePending(ctx context.Context, appUserID int64) error
	Insert(ctx context.Context, params model.CreateTelegramLinkParams) (*model.TelegramLink, error)
	Confirm(ctx context.Context, code string, appUserID, telegramID int64) (*model.TelegramLink, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

type telegramLinkRepo struct {
	db *sqlx.DB
}

func NewTelegramLinkRepository(db *sqlx.DB) TelegramLinkRepository {
	return &telegramLinkRepo{db: db}
}

func (r *telegramLinkRepo) FindPending(ctx context.Context, code string, appUserID int64) (*model.TelegramLink, error) {
	var link model.TelegramLink
	err := r.db.GetContext(ctx, &link, `
		SELECT * FROM telegram_links
		WHERE code = $1 AND app_user_id = $2
	`, code, appUserID)
	return HandleNotFound(&link, err)
}

func (r *telegramLinkRepo) FindConfirmedByUser(ctx context.Context, appUserID int64) (*model.TelegramLink, error) {
	var link model.TelegramLink
	err := r.db.GetContext(ctx, &link, `
		SELECT * FROM telegram_links
		WHERE app_user_id = $1 AND confirmed
		LIMIT 1
	`, appUserID)
	return HandleNotFound(&link, err)
}

func (r *telegramLinkRepo) FindConfirmedByTelegramID(ctx context.Context, telegramID int64) (*model.TelegramLink, error) {
	var link model.TelegramLink
	err := r.db.GetContext(ctx, &link, `
		SELECT * FROM telegram_links
		WHERE telegram_id = $1 AND confirmed
		LIMIT 1
	`, telegramID)
	return HandleNotFound(&link, err)
}

// DeletePending removes any unconfirmed rows for the user so a new link
// flow supersedes rather than accumulates.
func (r *telegramLinkRepo) DeletePending(ctx context.Context, appUserID int64) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM telegram_links
		WHERE app_user_id = $1 AND NOT confirmed
	`, appUserID)
	return err
}

func (r *telegramLinkRepo) Insert(ctx context.Context, params model.CreateTelegramLinkParams) (*model.TelegramLink, error) {
	var link model.TelegramLink
	err := r.db.GetContext(ctx, &link, `
		INSERT INTO telegram_links (telegram_id, app_user_id, code, confirmed, expires_at)
		VALUES (NULL, $1, $2, FALSE, $3)
		RETURNING *
	`, params.AppUserID, params.Code, params.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// Confirm flips an unconfirmed row exactly once: it binds the chat id,
// marks the row confirmed and clears its expiry. Returns nil if no
// matching unconfirmed row exists.
func (r *telegramLinkRepo) Confirm(ctx context.Context, code string, appUserID, telegramID int64) (*model.TelegramLink, error) {
	var link model.TelegramLink
	err := r.db.GetContext(ctx, &link, `
		UPDATE telegram_links SET
			telegram_id = $3,
			confirmed = TRUE,
			expires_at = NULL
		WHERE code = $1 AND app_user_id = $2 AND NOT confirmed
		RETURNING *
	`, code, appUserID, telegramID)
	return HandleNotFound(&link, err)
}

func (r *telegramLinkRepo) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM telegram_links
		WHERE NOT confirmed AND expires_at < NOW()
	`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
