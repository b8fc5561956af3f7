package handler_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campchat/backend/internal/api/handler"
	"campchat/backend/pkg/apperrors"
)

const testSecret = "super-secret-signing-key"

func TestTokenRoundtrip(t *testing.T) {
	auth := handler.NewAuthService(testSecret, time.Hour)

	token, err := auth.GenerateToken("user-1")
	require.NoError(t, err)

	userID, err := auth.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestVerifyTokenWrongSecret(t *testing.T) {
	auth := handler.NewAuthService(testSecret, time.Hour)
	other := handler.NewAuthService("a-different-secret-key!!", time.Hour)

	token, err := auth.GenerateToken("user-1")
	require.NoError(t, err)

	_, err = other.VerifyToken(token)
	assert.ErrorIs(t, err, apperrors.ErrNotAuthenticated)
}

func TestVerifyExpiredToken(t *testing.T) {
	auth := handler.NewAuthService(testSecret, -time.Minute)

	token, err := auth.GenerateToken("user-1")
	require.NoError(t, err)

	_, err = auth.VerifyToken(token)
	assert.ErrorIs(t, err, apperrors.ErrNotAuthenticated)
}

func TestVerifyGarbageToken(t *testing.T) {
	auth := handler.NewAuthService(testSecret, time.Hour)

	_, err := auth.VerifyToken("not-a-jwt")
	assert.ErrorIs(t, err, apperrors.ErrNotAuthenticated)
}
