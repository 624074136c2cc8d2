package model

import (
	"encoding/json"
	"time"
)

// Session is server-side state referenced by an opaque cookie token. Only
// the HMAC hash of the token is stored. UserID is the authentication claim,
// set on login and cleared on logout; Data carries any other session-scoped
// fields, so a session can exist without identifying anyone.
type Session struct {
	ID        string           `db:"id" json:"id"`
	TokenHash string           `db:"token_hash" json:"-"`
	UserID    *int64           `db:"user_id" json:"userId,omitempty"`
	Data      *json.RawMessage `db:"data" json:"data,omitempty"`
	ExpiresAt time.Time        `db:"expires_at" json:"expiresAt"`
	CreatedAt time.Time        `db:"created_at" json:"createdAt"`
}

type CreateSessionParams struct {
	TokenHash string
	UserID    *int64
	Data      *json.RawMessage
	ExpiresAt time.Time
}
