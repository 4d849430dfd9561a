package relay

import (
	"net/http"
	"net/url"
	"strings"
)

// Route represents a HTTP route
type Route struct {
	method      string
	pattern     string
	handler     HandlerFunc
	middleware  []MiddlewareFunc
	parts       []string
	paramsIndex []int
}

// Method returns the HTTP method the route is bound to.
func (r *Route) Method() string { return r.method }

// Pattern returns the route pattern as registered.
func (r *Route) Pattern() string { return r.pattern }

func (r *Route) isParam(i int) bool {
	return contains(r.paramsIndex, i)
}

// key identifies the route shape; parameter names do not take part.
func (r *Route) key() string {
	parts := make([]string, len(r.parts))
	copy(parts, r.parts)
	for _, i := range r.paramsIndex {
		parts[i] = ":"
	}
	return r.method + " " + strings.Join(parts, "/")
}

// compileRoute splits a pattern into its segments and records parameter positions.
func compileRoute(method, pattern string, handler HandlerFunc, middleware []MiddlewareFunc) (*Route, error) {
	if !strings.HasPrefix(pattern, "/") {
		return nil, &PatternError{Pattern: pattern, Reason: "must start with /"}
	}
	if handler == nil {
		return nil, &PatternError{Pattern: pattern, Reason: "nil handler"}
	}

	parts := strings.Split(pattern, "/")
	var paramsIndex []int
	seen := make(map[string]struct{})

	for i, part := range parts {
		if !strings.HasPrefix(part, ":") {
			continue
		}
		name := part[1:]
		if name == "" {
			return nil, &PatternError{Pattern: pattern, Reason: "unnamed parameter"}
		}
		if _, dup := seen[name]; dup {
			return nil, &PatternError{Pattern: pattern, Reason: "parameter " + name + " repeated"}
		}
		seen[name] = struct{}{}
		paramsIndex = append(paramsIndex, i)
		parts[i] = name
	}

	return &Route{
		method:      method,
		pattern:     pattern,
		handler:     handler,
		middleware:  middleware,
		parts:       parts,
		paramsIndex: paramsIndex,
	}, nil
}

// routeTable is written only during startup and read concurrently afterwards.
type routeTable struct {
	routes []*Route
	keys   map[string]*Route
}

func (t *routeTable) add(route *Route) error {
	if t.keys == nil {
		t.keys = make(map[string]*Route)
	}
	key := route.key()
	if existing, ok := t.keys[key]; ok {
		return &DuplicateRouteError{Method: route.method, Pattern: existing.pattern}
	}
	t.keys[key] = route
	t.routes = append(t.routes, route)
	return nil
}

// match finds the route for method and the escaped request path. HEAD falls
// back to the GET route when no HEAD route is registered.
func (t *routeTable) match(method, escapedPath string) (*Route, map[string]string) {
	requestParts := strings.Split(escapedPath, "/")
	route, params := t.matchMethod(method, requestParts)
	if route == nil && method == http.MethodHead {
		return t.matchMethod(http.MethodGet, requestParts)
	}
	return route, params
}

// matchMethod prefers literal routes over parameterised ones; otherwise
// registration order decides.
func (t *routeTable) matchMethod(method string, requestParts []string) (*Route, map[string]string) {

	var (
		found       *Route
		foundParams map[string]string
	)
	for _, route := range t.routes {
		if route.method != method || len(route.parts) != len(requestParts) {
			continue
		}
		if len(route.paramsIndex) > 0 && found != nil {
			continue
		}
		params, ok := route.bind(requestParts)
		if !ok {
			continue
		}
		if len(route.paramsIndex) == 0 {
			return route, params
		}
		found, foundParams = route, params
	}
	return found, foundParams
}

// bind checks every segment and collects decoded parameter values.
func (r *Route) bind(requestParts []string) (map[string]string, bool) {
	params := make(map[string]string, len(r.paramsIndex))

	for i, part := range requestParts {
		value, err := url.PathUnescape(part)
		if err != nil {
			return nil, false
		}
		if r.isParam(i) {
			if value == "" {
				return nil, false
			}
			params[r.parts[i]] = value
			continue
		}
		if value != r.parts[i] {
			return nil, false
		}
	}
	return params, true
}

func contains(arr []int, value int) bool {
	for _, v := range arr {
		if v == value {
			return true
		}
	}
	return false
}
