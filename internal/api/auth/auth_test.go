package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", hash)

	assert.NoError(t, CheckPassword(hash, "hunter2"))
	assert.ErrorIs(t, CheckPassword(hash, "wrong"), ErrInvalidCredentials)
}

func TestTokenManager(t *testing.T) {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	newManager := func(at time.Time) *TokenManager {
		tm := NewTokenManager("test-secret", time.Hour)
		tm.now = func() time.Time { return at }
		return tm
	}

	t.Run("round trip", func(t *testing.T) {
		tm := newManager(issued)
		token, err := tm.IssueToken("alice")
		require.NoError(t, err)

		username, err := tm.VerifyToken(token)
		require.NoError(t, err)
		assert.Equal(t, "alice", username)
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := newManager(issued).IssueToken("alice")
		require.NoError(t, err)

		late := newManager(issued.Add(2 * time.Hour))
		_, err = late.VerifyToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, err := newManager(issued).IssueToken("alice")
		require.NoError(t, err)

		other := NewTokenManager("other-secret", time.Hour)
		other.now = func() time.Time { return issued }
		_, err = other.VerifyToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := newManager(issued).VerifyToken("not.a.jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
