package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"

	"github.com/cbodonnell/codeword/pkg/log"
)

// SessionCookieName is the cookie carrying the admin session token.
const SessionCookieName = "admin_session"

// Auth issues and verifies admin session tokens. The token is an
// HMAC-SHA256 derived from the shared admin password, so it stays valid
// across server restarts without any shared session storage.
type Auth struct {
	password string
}

func NewAuth(password string) *Auth {
	return &Auth{password: password}
}

func (a *Auth) VerifyPassword(password string) bool {
	return hmac.Equal([]byte(password), []byte(a.password))
}

// Token returns the session cookie value for the current admin password.
func (a *Auth) Token() string {
	mac := hmac.New(sha256.New, []byte(a.password))
	mac.Write([]byte("admin-session"))
	return hex.EncodeToString(mac.Sum(nil))
}

func (a *Auth) VerifyToken(token string) bool {
	return hmac.Equal([]byte(token), []byte(a.Token()))
}

// NewAdminMiddleware rejects requests without a valid admin session cookie.
func NewAdminMiddleware(auth *Auth) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || !auth.VerifyToken(cookie.Value) {
				log.Debug("Rejected unauthenticated admin request to %s", r.URL.Path)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
