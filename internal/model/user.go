package model

import (
	"time"
)

// User is an identity record. At least one of GoogleID or PasswordHash is
// set after account creation; Email is unique when present.
type User struct {
	ID           int64      `db:"id" json:"id"`
	GoogleID     *string    `db:"google_id" json:"google_id,omitempty"`
	Email        *string    `db:"email" json:"email,omitempty"`
	Name         string     `db:"name" json:"name"`
	AvatarURL    *string    `db:"avatar_url" json:"avatar_url,omitempty"`
	PasswordHash *string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"lastLoginAt,omitempty"`
}

type CreateUserParams struct {
	GoogleID     *string
	Email        *string
	Name         string
	AvatarURL    *string
	PasswordHash *string
}
