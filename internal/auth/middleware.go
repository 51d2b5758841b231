package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-live/internal/auth/jwt"
	httperrors "github.com/gokatarajesh/quiz-live/pkg/http/errors"
)

type ctxClaimsKey struct{}

// ClaimsFromContext returns the host claims injected by RequireHost.
func ClaimsFromContext(ctx context.Context) (*jwt.Claims, bool) {
	claims, ok := ctx.Value(ctxClaimsKey{}).(*jwt.Claims)
	return claims, ok && claims != nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// RequireHost only lets requests through that carry a host token for the
// session named by the {code} path value.
func RequireHost(tokens *jwt.Manager, normalize func(string) string, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				httperrors.RespondUnauthorized(w, httperrors.ErrCodeUnauthorized, "Host token required")
				return
			}

			code := normalize(r.PathValue("code"))
			claims, err := tokens.ValidateHostToken(token, code)
			if err != nil {
				logger.Warn().Err(err).Str("session_code", code).Msg("host token rejected")
				if errors.Is(err, jwt.ErrWrongSession) {
					httperrors.RespondForbidden(w, httperrors.ErrCodeInvalidToken, "Token does not match this session")
					return
				}
				if errors.Is(err, jwt.ErrExpiredToken) {
					httperrors.RespondUnauthorized(w, httperrors.ErrCodeTokenExpired, "Host token expired")
					return
				}
				httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Invalid host token")
				return
			}

			ctx := context.WithValue(r.Context(), ctxClaimsKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
