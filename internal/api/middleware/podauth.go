package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/platebridge/portal/internal/api/response"
	"github.com/platebridge/portal/internal/core"
	"github.com/platebridge/portal/internal/model"
)

const podKeyKey contextKey = "pod_api_key"

// PodAuth returns middleware for the edge plane. It resolves the Bearer pod
// key against the stored hashes. Unknown, revoked, and malformed keys all
// get the same response so probes learn nothing.
func PodAuth(keys *core.PodAPIKeyService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawKey := bearerToken(r)
			if rawKey == "" {
				response.WriteError(w, http.StatusUnauthorized, "invalid API key")
				return
			}

			key, err := keys.Authenticate(r.Context(), rawKey)
			if err != nil {
				if errors.Is(err, core.ErrInvalidAPIKey) {
					response.WriteError(w, http.StatusUnauthorized, "invalid API key")
				} else {
					response.WriteError(w, http.StatusInternalServerError, "authentication unavailable")
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPodKey(r.Context(), key)))
		})
	}
}

// WithPodKey returns a context carrying the given authenticated pod key.
func WithPodKey(ctx context.Context, key *model.PodAPIKey) context.Context {
	return context.WithValue(ctx, podKeyKey, key)
}

// GetPodKey extracts the authenticated pod key from the request context.
func GetPodKey(ctx context.Context) *model.PodAPIKey {
	key, _ := ctx.Value(podKeyKey).(*model.PodAPIKey)
	return key
}
