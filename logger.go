package relay

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sort"
	"strings"
	"time"
)

func (g *Engine) logRequest(method string, statusCode int, route string, params map[string]string, elapsed time.Duration) {
	timestamp := time.Now().Format("2006/01/02 15:04:05")
	status := "-"
	if statusCode > 0 {
		status = fmt.Sprint(statusCode)
	}
	elapsed = elapsed.Round(time.Microsecond)

	g.logMu.Lock()
	defer g.logMu.Unlock()

	if g.development {
		// **Colorized Logging (For Dev Mode)**
		statusColor := getStatusColor(statusCode)
		methodColor := "\033[1;35m" // Magenta for method
		routeColor := "\033[1;34m"  // Blue for route
		reset := "\033[0m"

		// Format parameters only if they exist
		var paramsString string
		if len(params) > 0 {
			paramParts := []string{}
			for _, key := range sortedKeys(params) {
				paramParts = append(paramParts, fmt.Sprintf("\033[1;33m%s: \033[1;32m%s\033[0m", key, params[key]))
			}
			paramsString = " | Params: " + strings.Join(paramParts, ", ")
		}

		fmt.Fprintf(g.out, "\033[1;31m%s\033[0m | Method: %s%s%s | Status: %s%s%s | Route: %s%s%s | %s%s\n",
			timestamp,
			methodColor, method, reset,
			statusColor, status, reset,
			routeColor, route, reset,
			elapsed,
			paramsString,
		)
		return
	}

	// **Plain Logging (Production Mode)**
	if len(params) > 0 {
		fmt.Fprintf(g.out, "[%s] Method: %s | Status: %s | Route: %s | %s | Params: %v\n",
			timestamp, method, status, route, elapsed, params)
	} else {
		fmt.Fprintf(g.out, "[%s] Method: %s | Status: %s | Route: %s | %s\n",
			timestamp, method, status, route, elapsed)
	}
}

// logError is the sink for errors that never reach the client.
func (g *Engine) logError(method, route string, err error) {
	timestamp := time.Now().Format("2006/01/02 15:04:05")

	g.logMu.Lock()
	defer g.logMu.Unlock()

	if g.development {
		fmt.Fprintf(g.out, "\033[1;31m%s | ERROR | %s %s | %v\033[0m\n", timestamp, method, route, err)
	} else {
		fmt.Fprintf(g.out, "[%s] ERROR | %s %s | %v\n", timestamp, method, route, err)
	}

	var panicErr *HandlerError
	if errors.As(err, &panicErr) && len(panicErr.Stack) > 0 {
		g.out.Write(panicErr.Stack)
	}
}

// logMisuse reports a write after End. Development mode adds the offending stack.
func (g *Engine) logMisuse(method, route string, err error) {
	g.logError(method, route, err)
	if !g.development {
		return
	}
	g.logMu.Lock()
	defer g.logMu.Unlock()
	g.out.Write(debug.Stack())
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Helper function to colorize status codes
func getStatusColor(status int) string {
	if status >= 200 && status < 300 {
		return "\033[1;32m" // Green for 2xx Success
	}
	if status >= 400 && status < 500 {
		return "\033[1;33m" // Yellow for 4xx Client Errors
	}
	return "\033[1;31m" // Red for 5xx Server Errors
}
