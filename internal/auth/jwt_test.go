package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MimoJanra/SitePulse/internal/models"
)

var testSecret = []byte("unit-test-secret-key")

func TestGenerateAndValidateToken(t *testing.T) {
	user := models.User{ID: "u-1", Username: "alice", Role: models.RoleOnlyEdit}

	token, err := GenerateToken(testSecret, user, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.Subject)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, models.RoleOnlyEdit, claims.Role)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken(testSecret, models.User{ID: "u-1"}, time.Hour)
	require.NoError(t, err)

	_, err = ValidateToken([]byte("a-different-secret-key"), token)
	assert.Error(t, err)
}

func TestValidateTokenExpired(t *testing.T) {
	token, err := GenerateToken(testSecret, models.User{ID: "u-1"}, -time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken(testSecret, token)
	assert.Error(t, err)
}

func TestValidateTokenGarbage(t *testing.T) {
	_, err := ValidateToken(testSecret, "not-a-token")
	assert.Error(t, err)
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)

	assert.True(t, CheckPassword(hash, "s3cret"))
	assert.False(t, CheckPassword(hash, "wrong"))
}
