package relay

import (
	"net/http"
	"strings"
)

type CorsConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// UseCors installs Cors as global middleware.
func (g *Engine) UseCors(corsCFG CorsConfig) {
	g.UseMiddleware(Cors(corsCFG))
}

// Cors rejects methods outside AllowedMethods with 405, adds the CORS headers
// for allowed origins and answers preflight requests itself.
func Cors(corsCFG CorsConfig) MiddlewareFunc {
	methods := strings.Join(corsCFG.AllowedMethods, ", ")
	headers := strings.Join(corsCFG.AllowedHeaders, ", ")

	return func(c *Context) error {
		origin := c.Headers.Get("Origin")
		method := c.Method()
		if method == http.MethodOptions {
			method = c.Headers.Get("Access-Control-Request-Method")
		}

		methodAllowed := false
		for _, allowedMethod := range corsCFG.AllowedMethods {
			if method == allowedMethod {
				methodAllowed = true
				break
			}
		}
		if !methodAllowed {
			return c.String(http.StatusMethodNotAllowed, "Method not allowed")
		}

		res := c.Response()
		for _, allowedOrigin := range corsCFG.AllowedOrigins {
			if allowedOrigin == origin || allowedOrigin == "*" {
				if err := res.SetHeader("Access-Control-Allow-Origin", allowedOrigin); err != nil {
					return err
				}
				if err := res.SetHeader("Access-Control-Allow-Methods", methods); err != nil {
					return err
				}
				if err := res.SetHeader("Access-Control-Allow-Headers", headers); err != nil {
					return err
				}
				break
			}
		}

		if c.Method() == http.MethodOptions {
			if err := res.SetStatus(http.StatusNoContent); err != nil {
				return err
			}
			return res.End()
		}
		return c.Next()
	}
}
