package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	id "canvass/pkg/domain"
	"canvass/pkg/requestcontext"
)

// Claims carries the identity the external session provider asserted.
type Claims struct {
	ActorID      id.ActorID
	Role         id.Role
	SupervisorID id.ActorID // set only for team leaders
}

// Validator validates a bearer token and returns its claims.
type Validator interface {
	ValidateToken(tokenString string) (*Claims, error)
}

// RequireAuth enforces a valid bearer token and injects the caller identity
// into the request context. Session issuance lives outside this service;
// this is only the consuming side.
func RequireAuth(validator Validator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthenticated request - missing token",
					"request_id", requestID,
				)
				writeUnauthorized(w)
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthenticated request - invalid token",
					"request_id", requestID,
					"error", err,
				)
				writeUnauthorized(w)
				return
			}

			ctx = requestcontext.WithActorID(ctx, claims.ActorID)
			ctx = requestcontext.WithRole(ctx, claims.Role)
			if !claims.SupervisorID.IsNil() {
				ctx = requestcontext.WithSupervisorID(ctx, claims.SupervisorID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"authentication required"}`))
}
