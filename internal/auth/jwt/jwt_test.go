package jwt

import (
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amoylab/taskflow/internal/common/cnst"
	"github.com/amoylab/taskflow/internal/common/config"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestNewService_Validation(t *testing.T) {
	_, err := NewService(config.JWTConfig{Duration: time.Hour})
	assert.ErrorIs(t, err, ErrEmptySecretKey)
	_, err = NewService(config.JWTConfig{SecretKey: "short", Duration: time.Hour})
	assert.ErrorIs(t, err, ErrWeakSecretKey)
	_, err = NewService(config.JWTConfig{SecretKey: testSecret})
	assert.ErrorIs(t, err, ErrInvalidDuration)
}

func TestJWTService_GenerateAndValidate(t *testing.T) {
	s, err := NewService(config.JWTConfig{SecretKey: testSecret, Duration: time.Hour})
	require.NoError(t, err)
	assert.Equal(t, time.Hour, s.Duration())

	tok, err := s.GenerateToken(42, cnst.RoleAdmin)
	require.NoError(t, err)
	claims, err := s.ValidateToken(tok)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, cnst.RoleAdmin, claims.Role)
	assert.Equal(t, "42", claims.Subject)
}

func TestJWTService_ExpiredAndInvalid(t *testing.T) {
	s, err := NewService(config.JWTConfig{SecretKey: testSecret, Duration: time.Hour})
	require.NoError(t, err)
	tok, err := s.GenerateToken(1, cnst.RoleEmployee)
	require.NoError(t, err)

	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	claims, err := s.ValidateToken(tok)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, ErrExpiredToken)

	claims, err = s.ValidateToken("not-a-token")
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_RejectsOtherSecretsAndAlgorithms(t *testing.T) {
	s, err := NewService(config.JWTConfig{SecretKey: testSecret, Duration: time.Hour})
	require.NoError(t, err)
	other, err := NewService(config.JWTConfig{SecretKey: "ffffffffffffffffffffffffffffffff", Duration: time.Hour})
	require.NoError(t, err)

	tok, err := other.GenerateToken(7, cnst.RoleSuperAdmin)
	require.NoError(t, err)
	_, err = s.ValidateToken(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	unsigned := gojwt.NewWithClaims(gojwt.SigningMethodNone, &Claims{UserID: 7, Role: cnst.RoleSuperAdmin})
	raw, err := unsigned.SignedString(gojwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = s.ValidateToken(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
