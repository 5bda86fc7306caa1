package mcp

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// requireAuth gates a handler behind the configured credentials. The gate
// sits in front of the dispatcher: unauthenticated requests are rejected
// with a plain 401 and never produce a tool-call error, since no tool call
// context exists yet.
func (h *HTTPServer) requireAuth(next http.Handler) http.Handler {
	if !h.opts.Auth.Enabled {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// CORS preflight carries no credentials.
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		if token, ok := bearerToken(r); ok && h.opts.Auth.ServiceTokenSecret != "" {
			if err := h.verifyServiceToken(token); err == nil {
				next.ServeHTTP(w, r)
				return
			}
			h.logger.Warn("rejected service token", zap.String("remote", r.RemoteAddr))
			unauthorized(w)
			return
		}

		user, pass, ok := r.BasicAuth()
		if !ok || !h.checkBasic(user, pass) {
			h.logger.Warn("rejected unauthenticated request",
				zap.String("remote", r.RemoteAddr),
				zap.String("path", r.URL.Path))
			unauthorized(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *HTTPServer) checkBasic(user, pass string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(h.opts.Auth.Username)) == 1

	want := h.opts.Auth.Password
	var passOK bool
	if strings.HasPrefix(want, "$2a$") || strings.HasPrefix(want, "$2b$") || strings.HasPrefix(want, "$2y$") {
		passOK = bcrypt.CompareHashAndPassword([]byte(want), []byte(pass)) == nil
	} else {
		passOK = subtle.ConstantTimeCompare([]byte(pass), []byte(want)) == 1
	}
	return userOK && passOK
}

// verifyServiceToken accepts an HS256-signed token from a trusted
// service-to-service caller, as an alternative to Basic credentials.
func (h *HTTPServer) verifyServiceToken(token string) error {
	_, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(h.opts.Auth.ServiceTokenSecret), nil
	})
	return err
}

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer "), true
	}
	return "", false
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="autotask-mcp"`)
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}
