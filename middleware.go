package relay

import (
	"fmt"
	"net/http"
)

// Logger prints the method and URL of every request, then continues.
func Logger() MiddlewareFunc {
	return func(c *Context) error {
		c.engine.logMu.Lock()
		fmt.Fprintf(c.engine.out, "Request Details - Method: %s, URL: %s\n", c.Method(), c.request.URL.RequestURI())
		c.engine.logMu.Unlock()
		return c.Next()
	}
}

// BodyLimit rejects requests whose body is larger than limit bytes with 413.
func BodyLimit(limit int64) MiddlewareFunc {
	return func(c *Context) error {
		if c.request.ContentLength > limit {
			return c.String(http.StatusRequestEntityTooLarge, http.StatusText(http.StatusRequestEntityTooLarge))
		}
		if c.request.Body != nil {
			c.request.Body = http.MaxBytesReader(nil, c.request.Body, limit)
		}
		return c.Next()
	}
}
