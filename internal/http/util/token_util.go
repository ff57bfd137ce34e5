package util

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidToken  = errors.New("invalid or expired session token")
	ErrMissingSecret = errors.New("session secret is not configured")
)

const sigLen = 16

// SessionSigner issues and validates the signed session cookie value.
// A token is base64(expiry|session uuid) "." base64(truncated HMAC).
type SessionSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSessionSigner returns a signer whose tokens expire after ttl.
func NewSessionSigner(secret []byte, ttl time.Duration) *SessionSigner {
	return &SessionSigner{
		secret: secret,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue mints a token for a new random session id and returns both.
func (s *SessionSigner) Issue() (id string, token string, err error) {
	sid := uuid.New()
	token, err = s.IssueFor(sid.String())
	if err != nil {
		return "", "", err
	}
	return sid.String(), token, nil
}

// IssueFor re-signs an existing session id with a fresh expiry.
func (s *SessionSigner) IssueFor(id string) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrMissingSecret
	}
	sid, err := uuid.Parse(id)
	if err != nil {
		return "", ErrInvalidToken
	}

	payload := make([]byte, 4+16) // 4 bytes expiry + session uuid
	expires := uint32(s.now().Add(s.ttl).Unix())
	binary.BigEndian.PutUint32(payload[:4], expires)
	copy(payload[4:], sid[:])

	payloadEnc := base64.RawURLEncoding.EncodeToString(payload)
	sigEnc := base64.RawURLEncoding.EncodeToString(s.sign(payload)[:sigLen])
	return payloadEnc + "." + sigEnc, nil
}

// Validate checks signature integrity and TTL and returns the session id.
func (s *SessionSigner) Validate(token string) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrMissingSecret
	}

	payloadEnc, sigEnc, ok := strings.Cut(token, ".")
	if !ok {
		return "", ErrInvalidToken
	}

	payload, err := base64.RawURLEncoding.DecodeString(payloadEnc)
	if err != nil || len(payload) != 4+16 {
		return "", ErrInvalidToken
	}

	sigProvided, err := base64.RawURLEncoding.DecodeString(sigEnc)
	if err != nil || len(sigProvided) != sigLen {
		return "", ErrInvalidToken
	}

	if !hmac.Equal(sigProvided, s.sign(payload)[:sigLen]) {
		return "", ErrInvalidToken
	}

	expires := binary.BigEndian.Uint32(payload[:4])
	if s.now().Unix() > int64(expires) {
		return "", ErrInvalidToken
	}

	sid, err := uuid.FromBytes(payload[4:])
	if err != nil {
		return "", ErrInvalidToken
	}
	return sid.String(), nil
}

func (s *SessionSigner) sign(payload []byte) []byte {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte("session|"))
	mac.Write(payload)
	return mac.Sum(nil)
}
