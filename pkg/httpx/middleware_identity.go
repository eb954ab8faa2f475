package httpx

import (
	"net/http"

	"github.com/teamspaceapp/teamspace/pkg/idx"
)

// IdentityHeader is set by the upstream auth gateway after it has verified
// the caller's token. This service never sees raw credentials.
const IdentityHeader = "X-User-ID"

// IdentityMiddleware resolves the caller's user ID from the trusted gateway
// header and injects it into the request context. Requests without a valid
// identity are rejected with 401.
func IdentityMiddleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := r.Header.Get(IdentityHeader)
			if _, err := idx.Parse(userID); err != nil {
				WriteError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
				return
			}

			ctx := ContextWithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
