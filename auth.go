package relay

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ClaimsItem is the item key under which RequireBearer stores verified claims.
const ClaimsItem = "claims"

// RequireBearer lets a request through only with an HS256 bearer token signed
// with secret. Other requests are answered with 401 and the chain stops.
func RequireBearer(secret []byte) MiddlewareFunc {
	return func(c *Context) error {
		raw, ok := strings.CutPrefix(c.Headers.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			return unauthorized(c)
		}

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
			return secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			return unauthorized(c)
		}

		c.SetItem(ClaimsItem, claims)
		return c.Next()
	}
}

func unauthorized(c *Context) error {
	if err := c.Response().SetHeader("WWW-Authenticate", `Bearer realm="relay"`); err != nil {
		return err
	}
	return c.SendJSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
}
