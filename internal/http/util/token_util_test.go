package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionSigner_RoundTrip(t *testing.T) {
	s := NewSessionSigner([]byte("secret"), time.Hour)

	id, token, err := s.Issue()
	require.NoError(t, err)

	got, err := s.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestSessionSigner_Rejects(t *testing.T) {
	s := NewSessionSigner([]byte("secret"), time.Hour)
	_, token, err := s.Issue()
	require.NoError(t, err)

	other := NewSessionSigner([]byte("other"), time.Hour)
	_, err = other.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	tampered := "A" + token[1:]
	if tampered == token {
		tampered = "B" + token[1:]
	}
	_, err = s.Validate(tampered)
	assert.ErrorIs(t, err, ErrInvalidToken)

	for _, bad := range []string{"", "nodot", "a.b", "!!.??"} {
		_, err = s.Validate(bad)
		assert.ErrorIs(t, err, ErrInvalidToken, bad)
	}
}

func TestSessionSigner_Expired(t *testing.T) {
	s := NewSessionSigner([]byte("secret"), time.Minute)
	_, token, err := s.Issue()
	require.NoError(t, err)

	s.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = s.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSessionSigner_MissingSecret(t *testing.T) {
	s := NewSessionSigner(nil, time.Hour)

	_, _, err := s.Issue()
	assert.ErrorIs(t, err, ErrMissingSecret)

	_, err = s.Validate("x.y")
	assert.ErrorIs(t, err, ErrMissingSecret)
}
