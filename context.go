package relay

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/url"
	"sync"
)

// Context represents request context
type Context struct {
	engine   *Engine
	ctx      context.Context
	request  *http.Request
	response *Response
	Headers  http.Header
	params   map[string]string
	route    *Route
	query    url.Values
	items    map[string]any

	bodyOnce sync.Once
	body     []byte
	bodyErr  error

	// chain cursor
	mu      sync.Mutex
	armed   bool
	signals chan continuation
}

func newContext(g *Engine, ctx context.Context, w http.ResponseWriter, r *http.Request) *Context {
	c := &Context{
		engine:   g,
		ctx:      ctx,
		request:  r,
		response: newResponse(ctx, w, r.Method == http.MethodHead),
		Headers:  r.Header,
		signals:  make(chan continuation, 1),
	}
	c.response.misuse = func(err error) {
		g.logMisuse(r.Method, r.URL.Path, err)
	}
	return c
}

// Context returns the request context. It is cancelled when the client goes
// away or the request times out.
func (c *Context) Context() context.Context {
	return c.ctx
}

// Request returns the underlying HTTP request.
func (c *Context) Request() *http.Request {
	return c.request
}

// Response returns the response being built for this request.
func (c *Context) Response() *Response {
	return c.response
}

// Method returns the request method.
func (c *Context) Method() string {
	return c.request.Method
}

// Path returns the decoded request path.
func (c *Context) Path() string {
	return c.request.URL.Path
}

// Route returns the matched route, or nil when no route matched.
func (c *Context) Route() *Route {
	return c.route
}

// Set choosed item by choosed index
func (c *Context) SetItem(index string, item any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.items == nil {
		c.items = make(map[string]any)
	}
	c.items[index] = item
}

// Return choosed item by choosed index from param
func (c *Context) GetItem(index string) any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items[index]
}

// Next hands control back to the dispatcher, which runs the following stage
// once the current one has returned. It may be called from another goroutine
// after the stage returned.
func (c *Context) Next() error {
	return c.signal(nil)
}

// Fail skips every plain stage up to the next error middleware. Fail(nil) is Next.
func (c *Context) Fail(err error) error {
	return c.signal(err)
}

func (c *Context) signal(err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.armed {
		return ErrContinuationUsed
	}
	c.armed = false
	c.signals <- continuation{err: err}
	return nil
}

// arm gives the stage about to run its single continuation.
func (c *Context) arm() {
	c.mu.Lock()
	c.armed = true
	c.mu.Unlock()
}

// disarm withdraws the continuation and drops one already posted.
func (c *Context) disarm() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.armed {
		c.armed = false
		return
	}
	select {
	case <-c.signals:
	default:
	}
}

// LogError writes err to the engine's error log under this request's method
// and path. A *HandlerError also gets its stack.
func (c *Context) LogError(err error) {
	if err == nil {
		return
	}
	c.engine.logError(c.Method(), c.Path(), err)
}

// Redirect redirects to the specific url with chosen status code
func (c *Context) Redirect(url string, statusCode int) error {
	if err := c.response.SetHeader("Location", url); err != nil {
		return err
	}
	if err := c.response.SetStatus(statusCode); err != nil {
		return err
	}
	return c.response.End()
}

// Query gets a query value
func (c *Context) Query(key string) string {
	if c.query == nil {
		c.query = c.request.URL.Query()
	}
	return c.query.Get(key)
}

// Param gets a path parameter
func (c *Context) Param(key string) string {
	return c.params[key]
}

// Params returns a copy of all path parameters.
func (c *Context) Params() map[string]string {
	params := make(map[string]string, len(c.params))
	for k, v := range c.params {
		params[k] = v
	}
	return params
}

// Body reads the request body once and returns the cached bytes afterwards.
func (c *Context) Body() ([]byte, error) {
	c.bodyOnce.Do(func() {
		if c.request.Body == nil {
			return
		}
		defer c.request.Body.Close()
		c.body, c.bodyErr = io.ReadAll(c.request.Body)
	})
	return c.body, c.bodyErr
}

// PostForm gets a post form value with presented key
func (c *Context) PostForm(key string) string {
	mediaType, _, _ := mime.ParseMediaType(c.request.Header.Get("Content-Type"))
	if mediaType != "application/x-www-form-urlencoded" {
		return ""
	}
	body, err := c.Body()
	if err != nil {
		return ""
	}
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return ""
	}
	return values.Get(key)
}

// BindJSON decodes the JSON request body into v.
func (c *Context) BindJSON(v any) error {
	body, err := c.Body()
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}

// Send writes a complete response with the given content type.
func (c *Context) Send(statusCode int, contentType string, body []byte) error {
	if err := c.response.SetHeader("Content-Type", contentType); err != nil {
		return err
	}
	if err := c.response.SetStatus(statusCode); err != nil {
		return err
	}
	if _, err := c.response.Write(body); err != nil {
		return err
	}
	return c.response.End()
}

// String sends a plain text response.
func (c *Context) String(statusCode int, s string) error {
	return c.Send(statusCode, "text/plain; charset=utf-8", []byte(s))
}

// SendJSON sends a SendJSON response
func (c *Context) SendJSON(statusCode int, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Send(statusCode, "application/json", data)
}
