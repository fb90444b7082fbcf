package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"
)

// AuthCookie is the name of the cookie issued on login.
const AuthCookie = "authenticated"

// AuthToken derives the cookie value for a password.
func AuthToken(password string) string {
	sum := sha256.Sum256([]byte("camdetect:" + password))
	return hex.EncodeToString(sum[:])
}

// AuthMiddleware requires a valid auth cookie on every request except the
// login page and static assets. With an empty password the dashboard is open.
func AuthMiddleware(password string, next http.Handler) http.Handler {
	if password == "" {
		return next
	}
	token := AuthToken(password)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/login" ||
			r.URL.Path == "/auth/login" ||
			strings.HasPrefix(r.URL.Path, "/static/") {
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie(AuthCookie)
		if err != nil || subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(token)) != 1 {
			// API and websocket clients get 401, browsers are sent to the login page
			if strings.HasPrefix(r.URL.Path, "/api/") ||
				r.URL.Path == "/metrics" ||
				r.Header.Get("X-Requested-With") == "XMLHttpRequest" ||
				r.Header.Get("Content-Type") == "application/json" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
