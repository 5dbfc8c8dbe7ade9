package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/platebridge/portal/internal/api/response"
	"github.com/platebridge/portal/internal/core"
	"github.com/platebridge/portal/internal/model"
)

type contextKey string

const claimsKey contextKey = "claims"

// Auth returns middleware that validates session Bearer tokens and injects
// the claims into the request context. Browsers opening the websocket feed
// cannot set headers, so a token query parameter is accepted as a fallback.
func Auth(authService *core.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				token = r.URL.Query().Get("token")
			}
			if token == "" {
				response.WriteError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			claims, err := authService.ValidateToken(token)
			if err != nil {
				response.WriteError(w, http.StatusUnauthorized, err.Error())
				return
			}

			// X-View-As-Role lets admins preview the portal as a lesser
			// role. Widening is refused: the override only ever narrows.
			if viewAs := r.Header.Get("X-View-As-Role"); viewAs != "" {
				if roleRank(viewAs) == 0 {
					response.WriteError(w, http.StatusBadRequest, "unknown role: "+viewAs)
					return
				}
				if roleRank(viewAs) > roleRank(claims.Role) {
					response.WriteError(w, http.StatusForbidden, "cannot view as a higher role")
					return
				}
				claims.Role = viewAs
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == authHeader {
		return ""
	}
	return token
}

// WithClaims returns a context carrying the given session claims.
func WithClaims(ctx context.Context, claims *model.SessionClaims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// GetClaims extracts session claims from the request context.
func GetClaims(ctx context.Context) *model.SessionClaims {
	claims, _ := ctx.Value(claimsKey).(*model.SessionClaims)
	return claims
}
