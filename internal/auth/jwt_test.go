package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedManager(t *testing.T, at time.Time) *Manager {
	t.Helper()
	m, err := NewManager("s3cret")
	require.NoError(t, err)
	m.now = func() time.Time { return at }
	return m
}

func TestIssueAndVerify(t *testing.T) {
	t.Parallel()
	issued := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	m := fixedManager(t, issued)

	token, err := m.Issue(time.Hour)
	require.NoError(t, err)
	require.NoError(t, m.Verify(token))

	claims := &jwt.RegisteredClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(token, claims)
	require.NoError(t, err)
	assert.Equal(t, issued.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
}

func TestVerifyExpired(t *testing.T) {
	t.Parallel()
	issued := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	token, err := fixedManager(t, issued).Issue(time.Minute)
	require.NoError(t, err)

	later := fixedManager(t, issued.Add(2*time.Minute))
	assert.ErrorIs(t, later.Verify(token), ErrExpired)
	assert.Equal(t, "Token has expired", later.Verify(token).Error())
}

func TestVerifyInvalid(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	m := fixedManager(t, now)

	other, err := NewManager("other")
	require.NoError(t, err)
	other.now = m.now
	foreign, err := other.Issue(time.Hour)
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{}).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-token"},
		{name: "wrong secret", token: foreign},
		{name: "alg none", token: none},
		{name: "no expiry", token: noExpiry},
		{name: "empty", token: ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.ErrorIs(t, m.Verify(tc.token), ErrInvalid)
		})
	}
}

func TestIssueBounds(t *testing.T) {
	t.Parallel()
	m := fixedManager(t, time.Now())
	_, err := m.Issue(0)
	assert.Error(t, err)
	_, err = m.Issue(MaxDuration + time.Second)
	assert.Error(t, err)
	_, err = m.Issue(MaxDuration)
	assert.NoError(t, err)
}

func TestNewManagerRequiresSecret(t *testing.T) {
	t.Parallel()
	_, err := NewManager("")
	assert.Error(t, err)
}
