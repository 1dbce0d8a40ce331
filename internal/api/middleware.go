// Package api implements the folio REST API using chi.
package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// Verifier decides whether a request carries the capability to write or to
// preview unpublished content.
type Verifier interface {
	Authorized(r *http.Request) bool
}

// AllowAll authorizes every request (auth mode "disabled").
type AllowAll struct{}

// Authorized implements Verifier.
func (AllowAll) Authorized(*http.Request) bool { return true }

// TokenVerifier accepts requests carrying "Authorization: Bearer <Token>".
type TokenVerifier struct {
	Token string
}

// Authorized implements Verifier.
func (v TokenVerifier) Authorized(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	if v.Token == "" || !strings.HasPrefix(auth, "Bearer ") {
		return false
	}
	got := strings.TrimPrefix(auth, "Bearer ")
	return subtle.ConstantTimeCompare([]byte(got), []byte(v.Token)) == 1
}

// AuthMiddleware rejects requests the verifier does not authorize.
func AuthMiddleware(v Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !v.Authorized(r) {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
