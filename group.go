package relay

import "net/http"

// RouteGroup shares a path prefix and middleware between routes.
type RouteGroup struct {
	engine     *Engine
	parent     *RouteGroup
	basePath   string
	middleware []MiddlewareFunc
}

// Group creates a nested group below rg.
func (rg *RouteGroup) Group(basePath string, middleware ...MiddlewareFunc) *RouteGroup {
	return &RouteGroup{
		engine:     rg.engine,
		parent:     rg,
		basePath:   basePath,
		middleware: middleware,
	}
}

// Use appends middleware run for every route registered on the group afterwards.
func (rg *RouteGroup) Use(middleware ...MiddlewareFunc) {
	rg.middleware = append(rg.middleware, middleware...)
}

func (rg *RouteGroup) Get(path string, handler HandlerFunc, middleware ...MiddlewareFunc) {
	rg.engine.mustAddRoute(http.MethodGet, path, handler, middleware, rg)
}

func (rg *RouteGroup) Post(path string, handler HandlerFunc, middleware ...MiddlewareFunc) {
	rg.engine.mustAddRoute(http.MethodPost, path, handler, middleware, rg)
}

func (rg *RouteGroup) Patch(path string, handler HandlerFunc, middleware ...MiddlewareFunc) {
	rg.engine.mustAddRoute(http.MethodPatch, path, handler, middleware, rg)
}

func (rg *RouteGroup) Put(path string, handler HandlerFunc, middleware ...MiddlewareFunc) {
	rg.engine.mustAddRoute(http.MethodPut, path, handler, middleware, rg)
}

func (rg *RouteGroup) Delete(path string, handler HandlerFunc, middleware ...MiddlewareFunc) {
	rg.engine.mustAddRoute(http.MethodDelete, path, handler, middleware, rg)
}

// AddRoute is Engine.AddRoute scoped to the group.
func (rg *RouteGroup) AddRoute(method, path string, handler HandlerFunc, middleware ...MiddlewareFunc) error {
	return rg.engine.addRoute(method, path, handler, middleware, rg)
}
