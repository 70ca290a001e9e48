package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
)

func testUser() *model.User {
	u := &model.User{Username: "reception", Role: model.RoleReception}
	u.ID = uuid.New()
	u.TenantID = uuid.New()
	return u
}

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)
	user := testUser()

	token, expiresAt, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, model.Caller{TenantID: user.TenantID, UserID: user.ID, Role: model.RoleReception}, claims.Caller())
}

func TestJWTService_RejectsForeignSecret(t *testing.T) {
	token, _, err := NewJWTService("one", time.Hour).GenerateAccessToken(testUser())
	require.NoError(t, err)

	_, err = NewJWTService("two", time.Hour).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_RejectsExpired(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour).(*jwtService)
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, _, err := svc.GenerateAccessToken(testUser())
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_RejectsGarbage(t *testing.T) {
	_, err := NewJWTService("test-secret", time.Hour).ValidateToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
