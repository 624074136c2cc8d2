// Package linktoken signs and verifies the compact, expiring tokens that
// bind a user id to a single Telegram link flow. Tokens are stateless:
// consumption is enforced by the persisted link row, not here.
package linktoken

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const nonceBytes = 4

// Payload is the signed claim set. Exp is epoch milliseconds. The nonce
// only makes two tokens for the same user distinguishable; it plays no
// role in verification.
type Payload struct {
	UID   int64  `json:"uid"`
	Exp   int64  `json:"exp"`
	Nonce string `json:"n"`
}

type Signer struct {
	secret []byte
	now    func() time.Time
}

// NewSigner builds a Signer for the given secret. An empty secret makes
// every token forgeable, so it is rejected here rather than at first use.
func NewSigner(secret string) (*Signer, error) {
	if secret == "" {
		return nil, fmt.Errorf("link token secret must not be empty")
	}
	return &Signer{secret: []byte(secret), now: time.Now}, nil
}

// WithClock overrides the time source. Used by tests to simulate expiry.
func (s *Signer) WithClock(now func() time.Time) *Signer {
	s.now = now
	return s
}

// Sign produces base64url(payload) + "." + base64url(hmac-sha256(payload)).
func (s *Signer) Sign(userID int64, ttl time.Duration) (string, error) {
	nonce := make([]byte, nonceBytes)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	payload, err := json.Marshal(Payload{
		UID:   userID,
		Exp:   s.now().Add(ttl).UnixMilli(),
		Nonce: hex.EncodeToString(nonce),
	})
	if err != nil {
		return "", err
	}

	sig := s.sign(payload)
	return base64.RawURLEncoding.EncodeToString(payload) + "." + base64.RawURLEncoding.EncodeToString(sig), nil
}

// Verify checks the signature and expiry of a token. Every failure mode
// (wrong segment count, bad encoding, forged signature, malformed payload,
// expiry) collapses to ok=false; callers treat any failure uniformly as
// not authorized.
func (s *Signer) Verify(token string) (*Payload, bool) {
	parts := strings.Split(token, ".")
	if len(parts) != 2 {
		return nil, false
	}

	payloadBytes, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, false
	}
	sig, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, false
	}

	if !hmac.Equal(s.sign(payloadBytes), sig) {
		return nil, false
	}

	var payload Payload
	dec := json.NewDecoder(strings.NewReader(string(payloadBytes)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		return nil, false
	}
	if payload.UID == 0 || payload.Exp == 0 {
		return nil, false
	}
	if s.now().UnixMilli() > payload.Exp {
		return nil, false
	}

	return &payload, true
}

func (s *Signer) sign(payload []byte) []byte {
	h := hmac.New(sha256.New, s.secret)
	h.Write(payload)
	return h.Sum(nil)
}
