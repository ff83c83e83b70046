package jwttoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gather/pkg/domain"
	dErrors "gather/pkg/domain-errors"
	"gather/pkg/requestcontext"
)

func newTestService() *JWTService {
	return NewJWTService("test-signing-key", "gather", "gather-api")
}

func TestGenerateAndValidate(t *testing.T) {
	svc := newTestService()
	userID := domain.NewUserID()

	token, err := svc.GenerateAccessToken(userID, []string{requestcontext.RoleAdmin}, time.Minute)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, []string{requestcontext.RoleAdmin}, claims.Roles)
}

func TestValidateExpiredToken(t *testing.T) {
	svc := newTestService()

	token, err := svc.GenerateAccessToken(domain.NewUserID(), nil, -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	assert.ErrorContains(t, err, "expired")
}

func TestValidateWrongKey(t *testing.T) {
	token, err := newTestService().GenerateAccessToken(domain.NewUserID(), nil, time.Minute)
	require.NoError(t, err)

	other := NewJWTService("different-key", "gather", "gather-api")
	_, err = other.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestPrincipal(t *testing.T) {
	svc := newTestService()
	userID := domain.NewUserID()

	token, err := svc.GenerateAccessToken(userID, []string{requestcontext.RoleSuperAdmin}, time.Minute)
	require.NoError(t, err)

	got, roles, err := svc.Principal(token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
	assert.Contains(t, roles, requestcontext.RoleSuperAdmin)

	_, _, err = svc.Principal("not-a-token")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}
