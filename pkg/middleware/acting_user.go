package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/retailcloud/retail-sdk/pkg/composables"
)

// userHeader identifies the acting user when the edge proxy has already
// authenticated the request. A bearer token's sub claim is the fallback.
const userHeader = "X-User-Id"

// WithActingUser binds the acting user's id into the request context. The
// binding is optional here; operations that require an actor fail with a
// coded error when none was bound.
func WithActingUser() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id, ok := actingUserID(r); ok {
				r = r.WithContext(composables.WithUserID(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func actingUserID(r *http.Request) (uuid.UUID, bool) {
	if v := strings.TrimSpace(r.Header.Get(userHeader)); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			return id, true
		}
	}

	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return uuid.Nil, false
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(strings.TrimPrefix(auth, "Bearer "), &claims); err != nil {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
