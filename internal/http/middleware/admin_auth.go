package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// AdminAuth guards the admin panel's write endpoints. When a JWT secret is
// configured it expects an HMAC-signed bearer token; otherwise it falls back
// to comparing the static X-Admin-Token header the admin panel sends. With
// neither secret set, admin access is disabled outright.
func AdminAuth(jwtSecret, panelToken string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch {
			case jwtSecret != "":
				if !validBearerJWT(r, jwtSecret) {
					unauthorized(w)
					return
				}
			case panelToken != "":
				got := r.Header.Get("X-Admin-Token")
				if subtle.ConstantTimeCompare([]byte(got), []byte(panelToken)) != 1 {
					unauthorized(w)
					return
				}
			default:
				unauthorized(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func validBearerJWT(r *http.Request, secret string) bool {
	auth := r.Header.Get("Authorization")
	if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
		return false
	}
	tokenString := strings.TrimPrefix(auth, "Bearer ")
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	return err == nil && token.Valid
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": "unauthorized"})
}
