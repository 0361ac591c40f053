// Package linktoken signs and verifies the tokens embedded in consultee access links.
package linktoken

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalid is returned for malformed or tampered tokens.
	ErrInvalid = errors.New("invalid link token")
	// ErrExpired is returned when a well-formed token is past its expiry.
	ErrExpired = errors.New("link token expired")
)

// Signer creates and validates link tokens of the form <linkID>.<expiryUnix>.<signature>.
type Signer struct {
	secret []byte
	now    func() time.Time
}

// NewSigner constructs a signer with the provided secret.
func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret), now: time.Now}
}

// Generate returns a token referencing the link and its expiry.
func (s *Signer) Generate(linkID string, expiresAt time.Time) (string, error) {
	if linkID == "" {
		return "", fmt.Errorf("link id required")
	}
	if strings.Contains(linkID, ".") {
		return "", fmt.Errorf("link id must not contain '.'")
	}
	if len(s.secret) == 0 {
		return "", fmt.Errorf("signing secret missing")
	}
	ts := strconv.FormatInt(expiresAt.Unix(), 10)
	return strings.Join([]string{linkID, ts, s.sign(linkID, ts)}, "."), nil
}

// Parse validates a token and returns the link identifier and expiry.
func (s *Signer) Parse(token string) (linkID string, expiresAt time.Time, err error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 || parts[0] == "" {
		return "", time.Time{}, ErrInvalid
	}
	linkID, ts, signature := parts[0], parts[1], parts[2]

	expUnix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return "", time.Time{}, ErrInvalid
	}
	if !hmac.Equal([]byte(s.sign(linkID, ts)), []byte(signature)) {
		return "", time.Time{}, ErrInvalid
	}
	expiresAt = time.Unix(expUnix, 0).UTC()
	if s.now().After(expiresAt) {
		return linkID, expiresAt, ErrExpired
	}
	return linkID, expiresAt, nil
}

func (s *Signer) sign(linkID, ts string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(linkID + "|" + ts))
	return hex.EncodeToString(mac.Sum(nil))
}
