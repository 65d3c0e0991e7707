package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/calories/internal/auth"
	"github.com/mmynk/calories/internal/models"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// accountKey is the context key for storing the authenticated account.
const accountKey contextKey = "account"

// WithAccount returns a copy of ctx carrying account.
func WithAccount(ctx context.Context, account *models.Account) context.Context {
	return context.WithValue(ctx, accountKey, account)
}

// AccountFrom extracts the authenticated account from the context.
// Returns nil if not found.
func AccountFrom(ctx context.Context) *models.Account {
	account, _ := ctx.Value(accountKey).(*models.Account)
	return account
}

// GetAccountID extracts the authenticated account ID from the context.
// Returns empty string if not found.
func GetAccountID(ctx context.Context) string {
	if account := AccountFrom(ctx); account != nil {
		return account.ID
	}
	return ""
}

// TokenFromHeader extracts the key from an Authorization header of the form
// "Token <key>" or "Bearer <key>".
func TokenFromHeader(header string) (string, error) {
	if header == "" {
		return "", auth.ErrMissingToken
	}
	scheme, key, ok := strings.Cut(header, " ")
	if !ok || key == "" || strings.Contains(key, " ") {
		return "", auth.ErrInvalidToken
	}
	if !strings.EqualFold(scheme, "Token") && !strings.EqualFold(scheme, "Bearer") {
		return "", auth.ErrInvalidToken
	}
	return key, nil
}

// UnauthorizedFunc writes the response for a rejected request.
type UnauthorizedFunc func(w http.ResponseWriter, r *http.Request, err error)

// RequireAuthHTTP returns net/http middleware that resolves the session key to
// an account and stores it in the request context. Requests without a valid
// key are passed to unauthorized.
func RequireAuthHTTP(tokens auth.TokenValidator, unauthorized UnauthorizedFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			account, err := authenticate(r.Context(), tokens, r.Header.Get("Authorization"))
			if err != nil {
				unauthorized(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithAccount(r.Context(), account)))
		})
	}
}

// RequireAuth returns a Connect interceptor that resolves the session key to
// an account and adds it to the request context.
func RequireAuth(tokens auth.TokenValidator) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			account, err := authenticate(ctx, tokens, req.Header().Get("Authorization"))
			if err != nil {
				if isAuthError(err) {
					return nil, connect.NewError(connect.CodeUnauthenticated, err)
				}
				return nil, connect.NewError(connect.CodeInternal, err)
			}

			// Call the next handler with enriched context
			return next(WithAccount(ctx, account), req)
		}
	}
}

func authenticate(ctx context.Context, tokens auth.TokenValidator, header string) (*models.Account, error) {
	key, err := TokenFromHeader(header)
	if err != nil {
		return nil, err
	}
	account, err := tokens.AuthenticateToken(ctx, key)
	if err != nil {
		if !isAuthError(err) {
			slog.Error("Token authentication failed", "error", err)
		}
		return nil, err
	}
	return account, nil
}

func isAuthError(err error) bool {
	return errors.Is(err, auth.ErrMissingToken) || errors.Is(err, auth.ErrInvalidToken)
}
