package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dept-attendance-api/internal/models"
	appErrors "github.com/noah-isme/dept-attendance-api/pkg/errors"
)

func newAuth(dept string) *AuthService {
	return NewAuthService(nil, AuthConfig{
		AccessTokenSecret: "secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "dept-attendance",
		Audience:          []string{"attendance-api"},
		Dept:              dept,
	})
}

func TestAuthServiceIssueAndValidate(t *testing.T) {
	svc := newAuth("cse")
	token, expires, err := svc.IssueToken(Principal{UserID: "u1", Role: models.RoleMentor, Email: " Mentor@College.test "})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, time.Minute)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleMentor, claims.Role)
	assert.Equal(t, "mentor@college.test", claims.Email)
	assert.Equal(t, "CSE", claims.Dept)
}

func TestAuthServiceRejectsForeignTokens(t *testing.T) {
	token, _, err := newAuth("ECE").IssueToken(Principal{UserID: "u1", Role: models.RoleHOD})
	require.NoError(t, err)

	_, err = newAuth("CSE").ValidateToken(token)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	other := NewAuthService(nil, AuthConfig{AccessTokenSecret: "other", Issuer: "dept-attendance"})
	_, err = other.ValidateToken(token)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}

func TestAuthServiceRejectsUnknownRole(t *testing.T) {
	claims := &models.JWTClaims{
		UserID: "u1",
		Role:   "ADMIN",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "dept-attendance",
			Audience:  jwt.ClaimStrings{"attendance-api"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = newAuth("").ValidateToken(token)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	_, _, err = newAuth("").IssueToken(Principal{Role: "ADMIN"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestAuthServiceRejectsExpiredToken(t *testing.T) {
	svc := NewAuthService(nil, AuthConfig{AccessTokenSecret: "secret", AccessTokenExpiry: -time.Minute})
	// A non-positive expiry falls back to the default.
	token, _, err := svc.IssueToken(Principal{UserID: "u1", Role: models.RoleHOD})
	require.NoError(t, err)
	_, err = svc.ValidateToken(token)
	require.NoError(t, err)

	expired := &models.JWTClaims{
		UserID:           "u1",
		Role:             models.RoleHOD,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, expired).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = svc.ValidateToken(raw)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}
