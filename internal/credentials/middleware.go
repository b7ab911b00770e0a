package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/carebridge/ecw-bridge/internal/ecw"
)

type contextKey string

const tokensContextKey contextKey = "ecw_tokens"

// HeaderCredentialID names the header clients use to select a stored
// credential set for a request.
const HeaderCredentialID = "X-Credential-ID"

// TokensFromContext returns the session tokens the middleware resolved.
func TokensFromContext(ctx context.Context) (ecw.AuthTokens, bool) {
	tokens, ok := ctx.Value(tokensContextKey).(ecw.AuthTokens)
	return tokens, ok
}

// WithTokens stashes tokens in the context; exported for handler tests.
func WithTokens(ctx context.Context, tokens ecw.AuthTokens) context.Context {
	return context.WithValue(ctx, tokensContextKey, tokens)
}

// RequireCredential resolves the X-Credential-ID header to stored session
// tokens and injects them into the request context. Requests without a
// usable credential never reach the EMR-facing handlers.
func RequireCredential(svc *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			credentialID := r.Header.Get(HeaderCredentialID)
			tokens, err := svc.Resolve(r.Context(), credentialID)
			if err != nil {
				status := http.StatusUnauthorized
				switch {
				case errors.Is(err, ErrMissingCredentialID):
					status = http.StatusBadRequest
				case errors.Is(err, ErrCredentialNotFound):
					status = http.StatusNotFound
				}
				writeError(w, status, err.Error())
				return
			}
			next.ServeHTTP(w, r.WithContext(WithTokens(r.Context(), tokens)))
		})
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"error": message})
}
