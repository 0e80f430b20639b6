// Package token validates externally issued session JWTs. Issuance, login
// and refresh live in the identity provider; this service only consumes the
// resulting bearer tokens.
package token

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"canvass/internal/platform/middleware"
	id "canvass/pkg/domain"
)

// ErrInvalidToken is returned for any token that fails validation.
var ErrInvalidToken = errors.New("invalid token")

type sessionClaims struct {
	Role         string `json:"role"`
	SupervisorID string `json:"supervisor_id,omitempty"`
	jwt.RegisteredClaims
}

// Validator checks HMAC-signed session tokens.
type Validator struct {
	signingKey []byte
}

// New constructs a Validator with the shared signing key.
func New(signingKey string) *Validator {
	return &Validator{signingKey: []byte(signingKey)}
}

// ValidateToken parses and validates a session token, mapping its claims to
// the middleware identity.
func (v *Validator) ValidateToken(tokenString string) (*middleware.Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &sessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.signingKey, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	actorID, err := id.ParseActorID(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}
	role, err := id.ParseRole(claims.Role)
	if err != nil {
		return nil, ErrInvalidToken
	}

	out := &middleware.Claims{ActorID: actorID, Role: role}
	if claims.SupervisorID != "" {
		supervisorID, err := id.ParseActorID(claims.SupervisorID)
		if err != nil {
			return nil, ErrInvalidToken
		}
		out.SupervisorID = supervisorID
	}
	return out, nil
}
