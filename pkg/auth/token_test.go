package auth

import (
	"testing"
	"time"

	"github.com/example/eshop/pkg/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testManager(secret string) *Manager {
	return NewManager(&config.AuthConfig{
		Secret:   secret,
		TokenTTL: time.Hour,
	})
}

func TestIssueAndVerify(t *testing.T) {
	m := testManager("top-secret")

	token, err := m.Issue("user-1", true)
	require.NoError(t, err)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.True(t, claims.IsAdmin)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := testManager("secret-a").Issue("user-1", false)
	require.NoError(t, err)

	_, err = testManager("secret-b").Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	m := testManager("top-secret")

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	token, err := expired.SignedString([]byte("top-secret"))
	require.NoError(t, err)

	_, err = m.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsUnexpectedAlgorithm(t *testing.T) {
	m := testManager("top-secret")

	// "none" tokens must never verify, whatever the payload claims.
	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "user-1", IsAdmin: true})
	token, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = m.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	_, err := testManager("top-secret").Verify("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
