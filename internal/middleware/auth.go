package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"social-go/internal/apperr"
	"social-go/internal/auth"
	"social-go/internal/logging"
	"social-go/internal/models"
)

type contextKey string

const (
	userKey   contextKey = "user"
	claimsKey contextKey = "claims"
)

// Authenticator resolves a bearer token to the user it belongs to.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, *auth.Claims, error)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

// Auth rejects requests without a valid bearer token and stores the user
// and claims in the request context.
func Auth(authn Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r.Header.Get("Authorization"))
			if !ok {
				writeError(w, r, apperr.Unauthorized("missing or malformed bearer token"))
				return
			}
			user, claims, err := authn.Authenticate(r.Context(), token)
			if err != nil {
				writeError(w, r, err)
				return
			}
			ctx := WithUser(r.Context(), user, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithUser stores the authenticated user in ctx.
func WithUser(ctx context.Context, user *models.User, claims *auth.Claims) context.Context {
	ctx = context.WithValue(ctx, userKey, user)
	ctx = context.WithValue(ctx, claimsKey, claims)
	return logging.ContextWithUserID(ctx, user.ID)
}

func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userKey).(*models.User)
	return user, ok && user != nil
}

// UserIDFromContext returns the authenticated user id, or "" when absent.
func UserIDFromContext(ctx context.Context) string {
	if user, ok := UserFromContext(ctx); ok {
		return user.ID
	}
	return ""
}

func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*auth.Claims)
	return claims, ok && claims != nil
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	if apperr.ShouldLog(err) {
		logging.Ctx(r.Context()).Error().Err(err).Int("status", status).Msg("authentication failed")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": apperr.PublicMessage(err)})
}
