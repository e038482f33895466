// File: internal/infra/signer/signer.go
package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// Signer issues and verifies HMAC-SHA256 credentials: self-contained access
// tokens and the signed pairs that ride through the PSP redirect round-trip.
// It is stateless; revocation is only by rotating the secret.
type Signer struct {
	secret []byte
	now    func() time.Time
}

func New(secret string) *Signer {
	return &Signer{secret: []byte(secret), now: time.Now}
}

// NewWithClock is used by tests to simulate token expiry.
func NewWithClock(secret string, now func() time.Time) *Signer {
	return &Signer{secret: []byte(secret), now: now}
}

func (s *Signer) sign(payload string) string {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(payload))
	return hex.EncodeToString(h.Sum(nil))
}

// IssueToken mints an access token for email valid for ttl. The token is
// base64url("email:expiresAt:signature") where the signature covers
// "email:expiresAt".
func (s *Signer) IssueToken(email string, ttl time.Duration) string {
	expiresAt := s.now().Add(ttl).Unix()
	payload := email + ":" + strconv.FormatInt(expiresAt, 10)
	return base64.RawURLEncoding.EncodeToString([]byte(payload + ":" + s.sign(payload)))
}

// VerifyToken checks a token and, when expectedEmail is non-empty, binds it
// to that email. Malformed input is an expected adversarial case and reports
// ok=false, never an error.
func (s *Signer) VerifyToken(token, expectedEmail string) (ok bool, expiresAt time.Time) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return false, time.Time{}
	}
	parts := strings.Split(string(raw), ":")
	if len(parts) < 3 {
		return false, time.Time{}
	}
	// The email itself may contain ':' — only the last two segments are ours.
	sig := parts[len(parts)-1]
	expStr := parts[len(parts)-2]
	email := strings.Join(parts[:len(parts)-2], ":")

	if !hmac.Equal([]byte(sig), []byte(s.sign(email+":"+expStr))) {
		return false, time.Time{}
	}
	exp, err := strconv.ParseInt(expStr, 10, 64)
	if err != nil {
		return false, time.Time{}
	}
	expiresAt = time.Unix(exp, 0)
	if !expiresAt.After(s.now()) {
		return false, time.Time{}
	}
	if expectedEmail != "" && email != expectedEmail {
		return false, time.Time{}
	}
	return true, expiresAt
}

// SignPair signs an (a, b) pair, used for the stateless redirect ticket.
func (s *Signer) SignPair(a, b string) string {
	return s.sign(a + ":" + b)
}

// VerifyPair checks a pair signature. Tampering with either field fails.
func (s *Signer) VerifyPair(a, b, signature string) bool {
	return hmac.Equal([]byte(signature), []byte(s.sign(a+":"+b)))
}
