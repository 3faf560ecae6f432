package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseAccessToken(t *testing.T) {
	svc := NewJWTService("test-secret-key-for-jwt", time.Hour, 30*time.Second)
	employeeID := "0190d0f2-7b8c-7b4a-8a2b-6b8b8b8b8b8b"

	token, expiresAt, err := svc.GenerateAccessToken(Claims{UserID: "user-1", EmployeeID: &employeeID})
	require.NoError(t, err)
	assert.Greater(t, expiresAt, time.Now().Unix())

	claims, err := svc.ParseAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	require.NotNil(t, claims.EmployeeID)
	assert.Equal(t, employeeID, *claims.EmployeeID)
	assert.False(t, claims.IsAdmin)
}

func TestParseAccessToken_Rejects(t *testing.T) {
	svc := NewJWTService("test-secret-key-for-jwt", time.Hour, 0)

	other := NewJWTService("another-secret", time.Hour, 0)
	foreign, _, err := other.GenerateAccessToken(Claims{UserID: "user-1", IsAdmin: true})
	require.NoError(t, err)
	_, err = svc.ParseAccessToken(foreign)
	assert.Error(t, err, "signature from another key")

	expired := NewJWTService("test-secret-key-for-jwt", -time.Hour, 0)
	old, _, err := expired.GenerateAccessToken(Claims{UserID: "user-1"})
	require.NoError(t, err)
	_, err = svc.ParseAccessToken(old)
	assert.Error(t, err, "expired token")

	_, refresh, err := svc.JWTAuth().Encode(map[string]interface{}{"user_id": "user-1", "type": "refresh"})
	require.NoError(t, err)
	_, err = svc.ParseAccessToken(refresh)
	assert.Error(t, err, "wrong token type")
}

func TestClaimsFromMap(t *testing.T) {
	c := ClaimsFromMap(map[string]interface{}{
		"user_id":     "user-1",
		"employee_id": nil,
		"is_admin":    true,
	})
	assert.Equal(t, "user-1", c.UserID)
	assert.Nil(t, c.EmployeeID)
	assert.True(t, c.IsAdmin)
}
