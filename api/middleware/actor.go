package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/aurumworks/jewelstore-backend/pkg/logger"
)

const actorIDHeader = "X-Actor-Id"

type actorIDKey struct{}

// Actor reads the X-Actor-Id header into the request context. There is no
// auth layer in front of this API, the back-office client states who is
// acting. A missing or malformed header just means an unattributed action.
func Actor(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if raw := r.Header.Get(actorIDHeader); raw != "" {
				if actorID, err := uuid.Parse(raw); err == nil {
					ctx = context.WithValue(ctx, actorIDKey{}, actorID)
					if logg != nil {
						ctx = logg.WithActorID(ctx, actorID.String())
					}
				}
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ActorIDFromContext returns the acting user's id, or nil when the request
// carried none.
func ActorIDFromContext(ctx context.Context) *uuid.UUID {
	if id, ok := ctx.Value(actorIDKey{}).(uuid.UUID); ok {
		return &id
	}
	return nil
}
