package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/net/netutil"
)

const (
	defaultTimeout         = 30 * time.Second
	defaultShutdownTimeout = 10 * time.Second
)

// Engine represents the main engine of the web server
type Engine struct {
	table           routeTable
	middleware      []MiddlewareFunc
	errorMiddleware []ErrorMiddlewareFunc
	development     bool
	frozen          atomic.Bool
	out             io.Writer
	logMu           sync.Mutex
	timeout         time.Duration
	shutdownTimeout time.Duration
	maxConns        int
	staticRoot      string
	notFoundBody    string
}

// NewEngine creates a new Engine
func NewEngine() *Engine {
	return &Engine{
		out:             os.Stdout,
		timeout:         defaultTimeout,
		shutdownTimeout: defaultShutdownTimeout,
		notFoundBody:    "404 page not found",
	}
}

// ServeHTTP handles the request
func (g *Engine) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if x := g.serve(w, r); x.aborted {
		panic(http.ErrAbortHandler)
	}
}

// serve runs one request to the closed state and returns its exchange.
func (g *Engine) serve(w http.ResponseWriter, r *http.Request) *exchange {
	g.frozen.Store(true)
	start := time.Now()

	ctx, cancel := g.requestContext(r)
	defer cancel()

	c := newContext(g, ctx, w, r)
	x := newExchange(c, nil)

	x.transition(stateMatchingRoute)
	route, params := g.table.match(r.Method, r.URL.EscapedPath())
	c.route, c.params = route, params
	x.chain = g.resolveChain(route)

	x.transition(stateRunningChain)
	done := make(chan struct{})
	go func() {
		defer close(done)
		x.drive(ctx)
	}()

	select {
	case <-done:
	case <-ctx.Done():
	}

	if !c.response.cancel() {
		x.aborted = true
		if errors.Is(context.Cause(ctx), ErrRequestTimeout) {
			g.logError(r.Method, r.URL.Path, ErrRequestTimeout)
		}
	}
	x.transition(stateClosed)

	status := c.response.Status()
	if x.aborted {
		status = 0
	}
	g.logRequest(r.Method, status, r.URL.Path, params, time.Since(start))
	return x
}

func (g *Engine) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeoutCause(r.Context(), g.timeout, ErrRequestTimeout)
}

// resolveChain orders the stages for one request: global middleware, the
// route's group and own middleware, its handler, then error middleware.
func (g *Engine) resolveChain(route *Route) []stage {
	n := len(g.middleware) + len(g.errorMiddleware)
	if route != nil {
		n += len(route.middleware) + 1
	}
	chain := make([]stage, 0, n)

	for _, m := range g.middleware {
		chain = append(chain, stage{kind: stagePlain, plain: m})
	}
	if route != nil {
		for _, m := range route.middleware {
			chain = append(chain, stage{kind: stagePlain, plain: m})
		}
		chain = append(chain, stage{kind: stagePlain, plain: MiddlewareFunc(route.handler)})
	}
	for _, m := range g.errorMiddleware {
		chain = append(chain, stage{kind: stageError, onError: m})
	}
	return chain
}

func (g *Engine) IsDevelopment() {
	g.development = true
}

// SetOutput sets where access and error lines are written.
func (g *Engine) SetOutput(w io.Writer) {
	g.out = w
}

// SetTimeout bounds the time a request may take to respond. Zero disables it.
func (g *Engine) SetTimeout(d time.Duration) {
	g.timeout = d
}

// SetShutdownTimeout bounds how long Serve waits for in-flight requests.
func (g *Engine) SetShutdownTimeout(d time.Duration) {
	g.shutdownTimeout = d
}

// SetMaxConnections caps simultaneously accepted connections. Zero means no cap.
func (g *Engine) SetMaxConnections(n int) {
	g.maxConns = n
}

// SetNotFoundBody sets the body sent with 404 responses.
func (g *Engine) SetNotFoundBody(body string) {
	g.notFoundBody = body
}

// Get adds a GET route to the engine
func (g *Engine) Get(path string, handler HandlerFunc, middleware ...MiddlewareFunc) {
	g.mustAddRoute(http.MethodGet, path, handler, middleware, nil)
}

// Post adds a POST route to the engine
func (g *Engine) Post(path string, handler HandlerFunc, middleware ...MiddlewareFunc) {
	g.mustAddRoute(http.MethodPost, path, handler, middleware, nil)
}

// Patch adds a PATCH route to the engine
func (g *Engine) Patch(path string, handler HandlerFunc, middleware ...MiddlewareFunc) {
	g.mustAddRoute(http.MethodPatch, path, handler, middleware, nil)
}

// Put adds a PUT route to the engine
func (g *Engine) Put(path string, handler HandlerFunc, middleware ...MiddlewareFunc) {
	g.mustAddRoute(http.MethodPut, path, handler, middleware, nil)
}

// Delete adds a DELETE route to the engine
func (g *Engine) Delete(path string, handler HandlerFunc, middleware ...MiddlewareFunc) {
	g.mustAddRoute(http.MethodDelete, path, handler, middleware, nil)
}

// Options adds a OPTIONS route to the engine
func (g *Engine) Options(path string, handler HandlerFunc, middleware ...MiddlewareFunc) {
	g.mustAddRoute(http.MethodOptions, path, handler, middleware, nil)
}

// AddRoute registers handler for method and pattern. A second registration
// of the same method and pattern fails with *DuplicateRouteError.
func (g *Engine) AddRoute(method, pattern string, handler HandlerFunc, middleware ...MiddlewareFunc) error {
	return g.addRoute(method, pattern, handler, middleware, nil)
}

// Group creates a new RouteGroup
func (g *Engine) Group(basePath string, middleware ...MiddlewareFunc) *RouteGroup {
	return &RouteGroup{
		engine:     g,
		basePath:   basePath,
		middleware: middleware,
	}
}

// UseMiddleware Func which use for add middleware to whole engine
func (g *Engine) UseMiddleware(middleware MiddlewareFunc) {
	g.mustBeOpen()
	g.middleware = append(g.middleware, middleware)
}

// UseErrorMiddleware adds middleware that runs only while an error is pending.
func (g *Engine) UseErrorMiddleware(middleware ErrorMiddlewareFunc) {
	g.mustBeOpen()
	g.errorMiddleware = append(g.errorMiddleware, middleware)
}

// Run starts the web server on addr and stops it gracefully on SIGINT or SIGTERM.
func (g *Engine) Run(addr string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return g.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then drains in-flight
// requests before returning.
func (g *Engine) Serve(ctx context.Context, ln net.Listener) error {
	g.frozen.Store(true)

	fmt.Fprintln(g.out, "Relay Engine starting with the following routes:")
	for _, route := range g.table.routes {
		if route.method != http.MethodOptions {
			fmt.Fprintf(g.out, "%s %s\n", route.method, route.pattern)
		}
	}
	fmt.Fprintf(g.out, "Listening on %s\n", ln.Addr())

	if g.maxConns > 0 {
		ln = netutil.LimitListener(ln, g.maxConns)
	}
	srv := &http.Server{Handler: g, ReadHeaderTimeout: 10 * time.Second}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), g.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("relay: shutdown: %w", err)
	}
	if err := <-serveErr; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (g *Engine) mustAddRoute(method, path string, handler HandlerFunc, middleware []MiddlewareFunc, group *RouteGroup) {
	if err := g.addRoute(method, path, handler, middleware, group); err != nil {
		panic(err)
	}
}

func (g *Engine) mustBeOpen() {
	if g.frozen.Load() {
		panic(ErrRoutesFrozen)
	}
}

// addRoute adds a route to the engine
func (g *Engine) addRoute(method string, path string, handler HandlerFunc, middleware []MiddlewareFunc, group *RouteGroup) error {
	if g.frozen.Load() {
		return ErrRoutesFrozen
	}

	fullPath := path
	var fullMiddleware []MiddlewareFunc

	// Walk up the group hierarchy prepending base paths and middleware
	for p := group; p != nil; p = p.parent {
		fullPath = p.basePath + fullPath
		fullMiddleware = append(append([]MiddlewareFunc(nil), p.middleware...), fullMiddleware...)
	}
	fullMiddleware = append(fullMiddleware, middleware...)

	route, err := compileRoute(strings.ToUpper(method), fullPath, handler, fullMiddleware)
	if err != nil {
		return err
	}
	return g.table.add(route)
}
