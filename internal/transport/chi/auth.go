package chi

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/promptsgo/promptsgo/internal/domain"
	"github.com/promptsgo/promptsgo/internal/logger"
)

// ViewerHeader carries the caller's opaque viewer id, issued by the upstream auth service.
const ViewerHeader = "X-Viewer-ID"

// maxViewerIDLength bounds the viewer header.
const maxViewerIDLength = 128

// exemptPaths are routes that bypass authentication (health, metrics).
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// BearerAuthMiddleware returns a middleware that validates Bearer tokens.
// If apiKeys is empty, authentication is disabled (pass-through).
func BearerAuthMiddleware(apiKeys []string) func(http.Handler) http.Handler {
	var validKeys [][]byte
	for _, k := range apiKeys {
		if k != "" {
			validKeys = append(validKeys, []byte(k))
		}
	}

	return func(next http.Handler) http.Handler {
		if len(validKeys) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			auth := r.Header.Get("Authorization")
			if auth == "" {
				writeError(w, http.StatusUnauthorized, ErrorResponseCodeUnauthorized, "missing authorization header")
				return
			}

			const bearerPrefix = "Bearer "
			if !strings.HasPrefix(auth, bearerPrefix) {
				writeError(w, http.StatusUnauthorized,
					ErrorResponseCodeUnauthorized, "authorization header must use Bearer scheme")
				return
			}

			if !validKey(validKeys, []byte(auth[len(bearerPrefix):])) {
				writeError(w, http.StatusUnauthorized, ErrorResponseCodeUnauthorized, "invalid api key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func validKey(keys [][]byte, token []byte) bool {
	found := 0
	for _, k := range keys {
		found |= subtle.ConstantTimeCompare(k, token)
	}
	return found == 1
}

// ViewerMiddleware puts the X-Viewer-ID header into the request context.
// A missing header leaves the caller anonymous.
func ViewerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		viewer := strings.TrimSpace(r.Header.Get(ViewerHeader))
		if viewer == "" {
			next.ServeHTTP(w, r)
			return
		}
		if len(viewer) > maxViewerIDLength {
			writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "viewer id too long")
			return
		}
		ctx := domain.ContextWithViewer(r.Context(), viewer)
		ctx = logger.With(ctx, zap.String("viewer_id", viewer))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
