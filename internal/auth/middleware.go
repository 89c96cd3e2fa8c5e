package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/chirpd/microblog/internal/apperrors"
	"github.com/chirpd/microblog/internal/httpx"
	"github.com/chirpd/microblog/internal/models"
)

// Identity is the authenticated caller resolved from a bearer token.
type Identity struct {
	UserID   int64
	Username string
}

type identityKey struct{}

// WithIdentity returns a context carrying the caller identity.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom extracts the caller identity attached by Middleware.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// UserResolver resolves a validated token subject to a stored user.
type UserResolver interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// Middleware returns middleware that requires a valid bearer token. The
// token subject must resolve to an existing user; the resulting identity is
// attached to the request context. A token for a since-deleted user is
// rejected the same way as an invalid one.
func Middleware(tokens *TokenService, users UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const prefix = "Bearer "

			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, prefix) {
				httpx.Error(w, apperrors.Unauthorized("could not validate credentials"))
				return
			}

			subject, err := tokens.Validate(strings.TrimPrefix(header, prefix))
			if err != nil {
				httpx.Error(w, err)
				return
			}

			user, err := users.GetByUsername(r.Context(), subject)
			if err != nil {
				log.Ctx(r.Context()).Debug().
					Str("subject", subject).
					Msg("token subject does not resolve to a user")
				httpx.Error(w, apperrors.Unauthorized("could not validate credentials"))
				return
			}

			identity := Identity{UserID: user.ID, Username: user.Username}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}
