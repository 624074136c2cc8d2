package model

import (
	"time"
)

// TelegramLink tracks the lifecycle of binding one Telegram chat to one
// application account. At most one unconfirmed row exists per user; the
// chat id is set only at confirmation time, from the identity Telegram
// itself reports, and a confirmed row no longer expires.
type TelegramLink struct {
	TelegramID *int64     `db:"telegram_id" json:"telegramId,omitempty"`
	AppUserID  int64      `db:"app_user_id" json:"appUserId"`
	Code       string     `db:"code" json:"-"`
	Confirmed  bool       `db:"confirmed" json:"confirmed"`
	ExpiresAt  *time.Time `db:"expires_at" json:"expiresAt,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"createdAt"`
}

type CreateTelegramLinkParams struct {
	AppUserID int64
	Code      string
	ExpiresAt time.Time
}
