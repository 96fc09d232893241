package middleware

import (
	"net/http"

	"github.com/kiranshivaraju/clarus/internal/api/response"
)

// Authenticator reports whether the console holds a signed-in session.
type Authenticator interface {
	Authenticated() bool
}

// RequireSession rejects requests with 401 until someone has signed in.
func RequireSession(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !auth.Authenticated() {
				response.Error(w, http.StatusUnauthorized,
					"NOT_AUTHENTICATED", "Sign in or register first", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
