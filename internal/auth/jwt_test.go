package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/multiexpenses/internal/models"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager("secret", "multiexpenses", "multiexpenses", time.Hour)
	user := &models.User{ID: "u1", Email: "a@example.com"}

	token, err := m.Generate(user)
	require.NoError(t, err)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.Equal(t, "multiexpenses", claims.Issuer)
}

func TestJWTManager_Rejects(t *testing.T) {
	user := &models.User{ID: "u1", Email: "a@example.com"}
	good := NewJWTManager("secret", "iss", "aud", time.Hour)

	tests := []struct {
		name   string
		signer *JWTManager
	}{
		{"wrong secret", NewJWTManager("other", "iss", "aud", time.Hour)},
		{"wrong issuer", NewJWTManager("secret", "other", "aud", time.Hour)},
		{"wrong audience", NewJWTManager("secret", "iss", "other", time.Hour)},
		{"expired", NewJWTManager("secret", "iss", "aud", -time.Minute)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := tt.signer.Generate(user)
			require.NoError(t, err)

			_, err = good.Validate(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestJWTManager_RejectsMissingAndGarbage(t *testing.T) {
	m := NewJWTManager("secret", "iss", "aud", time.Hour)

	_, err := m.Validate("")
	assert.ErrorIs(t, err, ErrMissingToken)

	_, err = m.Validate("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTManager_RejectsNoneAlgorithm(t *testing.T) {
	m := NewJWTManager("secret", "iss", "aud", time.Hour)
	claims := &Claims{
		UserID: "u1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "iss",
			Audience:  jwt.ClaimStrings{"aud"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = m.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
