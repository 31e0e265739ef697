package tokens

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodec_RoundTrip(t *testing.T) {
	t.Parallel()

	codec := NewCodec([]byte("test-secret"), 15*time.Minute)
	roles := []string{"admin", "user"}
	scopes := []string{"read", "write", "admin"}

	token, exp, err := codec.Issue("42", roles, scopes)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), exp, time.Second)

	claims, err := codec.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, roles, claims.Roles)
	assert.Equal(t, scopes, claims.Scopes)
	assert.NotEmpty(t, claims.ID)
}

func TestCodec_JTIUniquePerIssue(t *testing.T) {
	t.Parallel()

	codec := NewCodec([]byte("test-secret"), time.Minute)

	t1, _, err := codec.Issue("1", nil, nil)
	require.NoError(t, err)
	t2, _, err := codec.Issue("1", nil, nil)
	require.NoError(t, err)

	c1, err := codec.Verify(t1)
	require.NoError(t, err)
	c2, err := codec.Verify(t2)
	require.NoError(t, err)
	assert.NotEqual(t, c1.ID, c2.ID)
}

func TestCodec_Expired(t *testing.T) {
	t.Parallel()

	codec := NewCodec([]byte("test-secret"), 15*time.Minute)
	token, _, err := codec.IssueWithTTL("42", nil, nil, -time.Minute)
	require.NoError(t, err)

	_, err = codec.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestCodec_WrongSecret(t *testing.T) {
	t.Parallel()

	codec := NewCodec([]byte("test-secret"), 15*time.Minute)
	other := NewCodec([]byte("other-secret"), 15*time.Minute)

	token, _, err := codec.Issue("42", nil, nil)
	require.NoError(t, err)

	_, err = other.Verify(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestCodec_Garbage(t *testing.T) {
	t.Parallel()

	codec := NewCodec([]byte("test-secret"), 15*time.Minute)
	_, err := codec.Verify("not.a.token")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestNewRefreshSecret(t *testing.T) {
	t.Parallel()

	a := NewRefreshSecret()
	b := NewRefreshSecret()
	assert.Len(t, a, 64) // 32 bytes hex encoded
	assert.NotEqual(t, a, b)
}
