package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	t.Parallel()

	issuer := NewIssuer("super-secret", time.Hour)

	tok, err := issuer.Issue("user-123")
	require.NoError(t, err)

	userID, err := issuer.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-123", userID)
}

func TestVerifyExpired(t *testing.T) {
	t.Parallel()

	issuer := NewIssuer("secret", -1*time.Second)

	tok, err := issuer.Issue("u1")
	require.NoError(t, err)

	_, err = issuer.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyWrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := NewIssuer("right-secret", time.Hour).Issue("u2")
	require.NoError(t, err)

	_, err = NewIssuer("wrong-secret", time.Hour).Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyMalformed(t *testing.T) {
	t.Parallel()

	issuer := NewIssuer("k", time.Hour)

	for _, tok := range []string{"", "not.a.jwt", "a.b"} {
		_, err := issuer.Verify(tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	}
}

// Expired, tampered and malformed tokens must fail with the same error so
// a caller cannot distinguish why verification failed.
func TestVerifyFailuresAreUniform(t *testing.T) {
	t.Parallel()

	expiredTok, err := NewIssuer("secret", -time.Minute).Issue("u3")
	require.NoError(t, err)
	tamperedTok, err := NewIssuer("other-secret", time.Hour).Issue("u3")
	require.NoError(t, err)

	issuer := NewIssuer("secret", time.Hour)
	_, expiredErr := issuer.Verify(expiredTok)
	_, tamperedErr := issuer.Verify(tamperedTok)
	_, malformedErr := issuer.Verify("garbage")

	assert.Equal(t, expiredErr, tamperedErr)
	assert.Equal(t, tamperedErr, malformedErr)
	assert.ErrorIs(t, expiredErr, ErrInvalidToken)
}
