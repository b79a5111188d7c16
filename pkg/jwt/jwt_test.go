package jwt_test

import (
	"testing"
	"time"

	"go-rbac-admin/pkg/jwt"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	signer := jwt.NewSigner("secret", time.Hour)
	id := uuid.New()

	token, err := signer.GenerateToken(id, "a@example.com")
	require.NoError(t, err)

	claims, err := signer.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.Equal(t, id.String(), claims.Subject)
}

func TestRejectedTokens(t *testing.T) {
	signer := jwt.NewSigner("secret", time.Hour)
	token, err := signer.GenerateToken(uuid.New(), "a@example.com")
	require.NoError(t, err)

	_, err = signer.ValidateToken("")
	assert.ErrorIs(t, err, jwt.ErrMissingToken)

	_, err = jwt.NewSigner("other", time.Hour).ValidateToken(token)
	assert.ErrorIs(t, err, jwt.ErrInvalidToken)

	expired, err := jwt.NewSigner("secret", -time.Minute).GenerateToken(uuid.New(), "a@example.com")
	require.NoError(t, err)
	_, err = signer.ValidateToken(expired)
	assert.ErrorIs(t, err, jwt.ErrInvalidToken)

	_, err = signer.ValidateToken("not.a.token")
	assert.ErrorIs(t, err, jwt.ErrInvalidToken)
}
