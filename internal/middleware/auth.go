package middleware

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/scrtch/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// UserIDKey is the context key for storing the authenticated user ID.
	UserIDKey contextKey = "user_id"
	// EmailKey is the context key for storing the authenticated user's email.
	EmailKey contextKey = "email"
)

// GetUserID extracts the user ID from the context.
// Returns empty string if not found.
func GetUserID(ctx context.Context) string {
	userID, _ := ctx.Value(UserIDKey).(string)
	return userID
}

// GetEmail extracts the user email from the context.
// Returns empty string if not found.
func GetEmail(ctx context.Context) string {
	email, _ := ctx.Value(EmailKey).(string)
	return email
}

// WithUser returns a context carrying the signed-in user.
func WithUser(ctx context.Context, userID, email string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	return context.WithValue(ctx, EmailKey, email)
}

// AuthInterceptor validates Bearer tokens on unary and streaming calls.
type AuthInterceptor struct {
	jwtManager *auth.JWTManager
	required   bool
}

var _ connect.Interceptor = (*AuthInterceptor)(nil)

// RequireAuth returns an interceptor that rejects calls without a valid token.
// It extracts the token from the Authorization header, validates it, and adds
// the user ID and email to the request context.
func RequireAuth(jwtManager *auth.JWTManager) *AuthInterceptor {
	return &AuthInterceptor{jwtManager: jwtManager, required: true}
}

// OptionalAuth returns an interceptor that validates tokens if present, but
// allows calls without one. Invalid tokens are treated as signed out.
func OptionalAuth(jwtManager *auth.JWTManager) *AuthInterceptor {
	return &AuthInterceptor{jwtManager: jwtManager}
}

// WrapUnary implements connect.Interceptor.
func (i *AuthInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		ctx, err := i.authenticate(ctx, req.Header())
		if err != nil {
			return nil, err
		}
		return next(ctx, req)
	}
}

// WrapStreamingClient implements connect.Interceptor. Clients are not wrapped.
func (i *AuthInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next
}

// WrapStreamingHandler implements connect.Interceptor.
func (i *AuthInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return func(ctx context.Context, conn connect.StreamingHandlerConn) error {
		ctx, err := i.authenticate(ctx, conn.RequestHeader())
		if err != nil {
			return err
		}
		return next(ctx, conn)
	}
}

func (i *AuthInterceptor) authenticate(ctx context.Context, header http.Header) (context.Context, error) {
	// Extract Authorization header
	authHeader := header.Get("Authorization")
	if authHeader == "" {
		if i.required {
			return ctx, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
		}
		return ctx, nil
	}

	// Parse Bearer token
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		if i.required {
			return ctx, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidToken)
		}
		return ctx, nil
	}

	// Validate token
	claims, err := i.jwtManager.Validate(parts[1])
	if err != nil {
		if i.required {
			return ctx, connect.NewError(connect.CodeUnauthenticated, err)
		}
		return ctx, nil
	}

	return WithUser(ctx, claims.UserID, claims.Email), nil
}
