package relay

import (
	"errors"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// SetStatic serves files below root when no route answers a GET or HEAD request.
func (g *Engine) SetStatic(root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	g.staticRoot = abs
	return nil
}

// StaticLookup reads the file urlPath names below the static root. Paths that
// resolve outside the root fail with ErrPathTraversal; missing files and
// directories without index.html fail with ErrRouteNotFound.
func (g *Engine) StaticLookup(urlPath string) ([]byte, string, error) {
	if g.staticRoot == "" {
		return nil, "", ErrRouteNotFound
	}

	name := filepath.Join(g.staticRoot, filepath.FromSlash(urlPath))
	if !within(g.staticRoot, name) {
		return nil, "", ErrPathTraversal
	}

	info, err := os.Stat(name)
	if err != nil {
		return nil, "", ErrRouteNotFound
	}
	if info.IsDir() {
		name = filepath.Join(name, "index.html")
	}

	resolved, err := filepath.EvalSymlinks(name)
	if err != nil {
		return nil, "", ErrRouteNotFound
	}
	if !within(g.staticRoot, resolved) {
		return nil, "", ErrPathTraversal
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, "", notFoundOr(err)
	}
	contentType := mime.TypeByExtension(filepath.Ext(resolved))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return data, contentType, nil
}

func within(root, name string) bool {
	rel, err := filepath.Rel(root, name)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func notFoundOr(err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return ErrRouteNotFound
	}
	return err
}

// fallback answers a request whose chain finished without a response.
func (g *Engine) fallback(c *Context) {
	method := c.request.Method
	if g.staticRoot != "" && (method == http.MethodGet || method == http.MethodHead) {
		data, contentType, err := g.StaticLookup(c.request.URL.Path)
		switch {
		case err == nil:
			c.response.reset(http.StatusOK)
			if err := c.Send(http.StatusOK, contentType, data); err != nil {
				g.logError(method, c.request.URL.Path, err)
			}
			return
		case errors.Is(err, ErrPathTraversal):
			g.logError(method, c.request.URL.Path, err)
		case !errors.Is(err, ErrRouteNotFound):
			g.serverError(c, err)
			return
		}
	}
	g.notFound(c)
}

// notFound sends the 404 response.
func (g *Engine) notFound(c *Context) {
	c.response.reset(http.StatusNotFound)
	if err := c.String(http.StatusNotFound, g.notFoundBody); err != nil {
		g.logError(c.request.Method, c.request.URL.Path, err)
	}
}

// serverError logs err and sends a generic 500 response.
func (g *Engine) serverError(c *Context, err error) {
	g.logError(c.request.Method, c.request.URL.Path, err)
	c.response.reset(http.StatusInternalServerError)
	if err := c.String(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)); err != nil {
		g.logError(c.request.Method, c.request.URL.Path, err)
	}
}
