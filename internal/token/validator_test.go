package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "canvass/pkg/domain"
)

const testKey = "test-signing-key"

func signToken(t *testing.T, key string, claims sessionClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(key))
	require.NoError(t, err)
	return signed
}

func TestValidateToken(t *testing.T) {
	validator := New(testKey)
	actorID := id.NewActorID()
	supervisorID := id.NewActorID()

	t.Run("valid token maps claims", func(t *testing.T) {
		signed := signToken(t, testKey, sessionClaims{
			Role:         "team_leader",
			SupervisorID: supervisorID.String(),
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   actorID.String(),
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})

		claims, err := validator.ValidateToken(signed)
		require.NoError(t, err)
		assert.Equal(t, actorID, claims.ActorID)
		assert.Equal(t, id.RoleTeamLeader, claims.Role)
		assert.Equal(t, supervisorID, claims.SupervisorID)
	})

	t.Run("wrong signing key fails", func(t *testing.T) {
		signed := signToken(t, "other-key", sessionClaims{
			Role: "admin",
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   actorID.String(),
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})
		_, err := validator.ValidateToken(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired token fails", func(t *testing.T) {
		signed := signToken(t, testKey, sessionClaims{
			Role: "admin",
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   actorID.String(),
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			},
		})
		_, err := validator.ValidateToken(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unknown role fails", func(t *testing.T) {
		signed := signToken(t, testKey, sessionClaims{
			Role: "superuser",
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   actorID.String(),
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})
		_, err := validator.ValidateToken(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing subject fails", func(t *testing.T) {
		signed := signToken(t, testKey, sessionClaims{
			Role: "admin",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})
		_, err := validator.ValidateToken(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage is rejected", func(t *testing.T) {
		_, err := validator.ValidateToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
