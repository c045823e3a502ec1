package auth

import (
	"testing"
	"time"

	"shop-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestTokenRoundTrip(t *testing.T) {
	user := &models.User{
		ID:            7,
		UserName:      "admin",
		MerchantStore: models.MerchantStore{Code: "DEFAULT"},
		Groups:        []models.Group{{Name: models.GroupAdmin}},
	}

	token, err := GenerateToken(testSecret, time.Hour, user)
	require.NoError(t, err)

	claims, err := ParseToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "admin", claims.UserName)
	assert.Equal(t, "DEFAULT", claims.StoreCode)
	assert.Equal(t, []string{models.GroupAdmin}, claims.Groups)

	_, err = ParseToken("another-secret-another-secret-xx", token)
	assert.Error(t, err)
}

func TestExpiredToken(t *testing.T) {
	token, err := GenerateToken(testSecret, -time.Minute, &models.User{UserName: "admin"})
	require.NoError(t, err)

	_, err = ParseToken(testSecret, token)
	assert.Error(t, err)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("secret123")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "secret123"))
	assert.False(t, CheckPassword(hash, "secret124"))
}
