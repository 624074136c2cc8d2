package model

import (
	"time"
)

// OAuthState is a short-lived CSRF binding for an in-flight OAuth flow.
type OAuthState struct {
	ID        string    `db:"id" json:"id"`
	State     string    `db:"state" json:"-"`
	ExpiresAt time.Time `db:"expires_at" json:"expiresAt"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

type CreateOAuthStateParams struct {
	State     string
	ExpiresAt time.Time
}

// OAuthUserProfile is the normalized profile returned by the provider.
type OAuthUserProfile struct {
	ID        string
	Email     string
	Name      string
	AvatarURL string
}
