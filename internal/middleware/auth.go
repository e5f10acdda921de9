package middleware

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/finanza/finanza-api/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// UserIDKey is the context key for storing the authenticated user ID.
const UserIDKey contextKey = "user_id"

// UserID extracts the authenticated user ID from the context.
// Returns empty string if not found.
func UserID(ctx context.Context) string {
	userID, _ := ctx.Value(UserIDKey).(string)
	return userID
}

// WithUserID returns a copy of ctx carrying userID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// RequireAuth returns an interceptor that validates the bearer token and
// requires authentication. The user ID lives only in the request context;
// nothing is kept between requests.
//
// Rejected calls never reach the inner interceptors, so they are logged here.
// Callers only see the ErrMissingToken or ErrInvalidToken text.
func RequireAuth(tokens *auth.TokenService, logger *slog.Logger) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			userID, err := tokens.VerifyHeader(req.Header().Get("Authorization"))
			if err != nil {
				public := auth.ErrInvalidToken
				if errors.Is(err, auth.ErrMissingToken) {
					public = auth.ErrMissingToken
				}
				logger.WarnContext(ctx, "RPC unauthenticated",
					"procedure", req.Spec().Procedure,
					"error", err,
					"peer", req.Peer().Addr,
				)
				return nil, connect.NewError(connect.CodeUnauthenticated, public)
			}

			return next(WithUserID(ctx, userID), req)
		}
	}
}
