package token

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/xueshanchen/picbed/pkg/types/errs"
)

func TestMintVerifyRoundtrip(t *testing.T) {
	c := New("test-secret", 7*24*time.Hour)
	userID := uuid.New()

	tok, err := c.Mint(userID, "alice")
	require.NoError(t, err)
	require.Len(t, strings.Split(tok, "."), 2)

	identity, err := c.Verify(tok)
	require.NoError(t, err)
	require.Equal(t, userID, identity.UserID)
	require.Equal(t, "alice", identity.Username)
	require.Equal(t, 7*24*time.Hour, identity.ExpiresAt.Sub(identity.IssuedAt))
}

func TestVerifyExpired(t *testing.T) {
	c := New("test-secret", time.Hour)

	tok, err := c.Mint(uuid.New(), "alice")
	require.NoError(t, err)

	c.now = func() time.Time { return time.Now().Add(time.Hour + time.Second) }

	_, err = c.Verify(tok)
	require.ErrorIs(t, err, errs.ErrInvalidToken)
}

func TestVerifyNotYetExpired(t *testing.T) {
	c := New("test-secret", time.Hour)

	tok, err := c.Mint(uuid.New(), "alice")
	require.NoError(t, err)

	c.now = func() time.Time { return time.Now().Add(59 * time.Minute) }

	_, err = c.Verify(tok)
	require.NoError(t, err)
}

func TestVerifyTampered(t *testing.T) {
	c := New("test-secret", time.Hour)

	tok, err := c.Mint(uuid.New(), "alice")
	require.NoError(t, err)

	// flipping any byte of either segment must invalidate the token
	for i := 0; i < len(tok); i++ {
		if tok[i] == '.' {
			continue
		}

		b := []byte(tok)
		b[i] ^= 0x01

		_, err := c.Verify(string(b))
		require.ErrorIs(t, err, errs.ErrInvalidToken, "flipped byte %d", i)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	minted := New("secret-one", time.Hour)
	verifier := New("secret-two", time.Hour)

	tok, err := minted.Mint(uuid.New(), "alice")
	require.NoError(t, err)

	_, err = verifier.Verify(tok)
	require.ErrorIs(t, err, errs.ErrInvalidToken)
}

func TestVerifyMalformed(t *testing.T) {
	c := New("test-secret", time.Hour)

	for _, tok := range []string{
		"",
		"justonepart",
		"a.b.c",
		"!!!not-base64.!!!also-not",
	} {
		_, err := c.Verify(tok)
		require.Error(t, err)
		require.True(t, errors.Is(err, errs.ErrInvalidToken), "token %q", tok)
	}
}
