package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/smart-planner-api/internal/models"
	appErrors "github.com/noah-isme/smart-planner-api/pkg/errors"
)

func signToken(t *testing.T, method jwt.SigningMethod, key interface{}, claims models.JWTClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func validClaims() models.JWTClaims {
	return models.JWTClaims{
		UserID:   "user-1",
		Email:    "ana@example.com",
		Timezone: "America/Guayaquil",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "planner",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestValidateTokenAcceptsSignedToken(t *testing.T) {
	svc := NewTokenService("secret", "planner")
	claims, err := svc.ValidateToken(signToken(t, jwt.SigningMethodHS256, []byte("secret"), validClaims()))
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "America/Guayaquil", claims.Timezone)
}

func TestValidateTokenFallsBackToSubject(t *testing.T) {
	svc := NewTokenService("secret", "")
	c := validClaims()
	c.UserID = ""
	c.Subject = "user-9"
	claims, err := svc.ValidateToken(signToken(t, jwt.SigningMethodHS256, []byte("secret"), c))
	require.NoError(t, err)
	assert.Equal(t, "user-9", claims.UserID)
}

func TestValidateTokenRejectsBadTokens(t *testing.T) {
	svc := NewTokenService("secret", "planner")

	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	wrongIssuer := validClaims()
	wrongIssuer.Issuer = "elsewhere"
	anonymous := validClaims()
	anonymous.UserID = ""

	cases := map[string]string{
		"wrong secret": signToken(t, jwt.SigningMethodHS256, []byte("other"), validClaims()),
		"wrong method": signToken(t, jwt.SigningMethodHS512, []byte("secret"), validClaims()),
		"expired":      signToken(t, jwt.SigningMethodHS256, []byte("secret"), expired),
		"issuer":       signToken(t, jwt.SigningMethodHS256, []byte("secret"), wrongIssuer),
		"no subject":   signToken(t, jwt.SigningMethodHS256, []byte("secret"), anonymous),
		"garbage":      "not-a-token",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ValidateToken(token)
			require.Error(t, err)
			assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
		})
	}
}
