package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// SignedGrant is the payload bound into a signed object token.
type SignedGrant struct {
	Method      string
	Key         string
	ContentType string
	ExpiresAt   time.Time
}

// SignedURLSigner creates and validates HMAC object tokens for the local driver.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedURLSigner constructs a signer with the provided secret and TTL.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SignedURLSigner{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Generate returns a token granting method on key until the TTL elapses.
func (s *SignedURLSigner) Generate(method, key, contentType string) (string, time.Time, error) {
	if method == "" || key == "" {
		return "", time.Time{}, fmt.Errorf("method and key required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl)
	payload := strings.Join([]string{
		method,
		strconv.FormatInt(expiresAt.Unix(), 10),
		contentType,
		key,
	}, "|")
	encoded := base64.RawURLEncoding.EncodeToString([]byte(payload))
	return encoded + "." + s.sign(encoded), expiresAt, nil
}

// Parse validates a token and returns the grant it carries.
func (s *SignedURLSigner) Parse(token string) (SignedGrant, error) {
	encoded, signature, ok := strings.Cut(token, ".")
	if !ok || encoded == "" || signature == "" {
		return SignedGrant{}, ErrInvalidToken
	}
	if !hmac.Equal([]byte(s.sign(encoded)), []byte(signature)) {
		return SignedGrant{}, ErrInvalidToken
	}

	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return SignedGrant{}, ErrInvalidToken
	}
	parts := strings.SplitN(string(raw), "|", 4)
	if len(parts) != 4 {
		return SignedGrant{}, ErrInvalidToken
	}
	expUnix, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return SignedGrant{}, ErrInvalidToken
	}

	grant := SignedGrant{
		Method:      parts[0],
		ExpiresAt:   time.Unix(expUnix, 0),
		ContentType: parts[2],
		Key:         parts[3],
	}
	if s.now().After(grant.ExpiresAt) {
		return SignedGrant{}, ErrTokenExpired
	}
	return grant, nil
}

func (s *SignedURLSigner) sign(encoded string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(encoded))
	return hex.EncodeToString(mac.Sum(nil))
}
