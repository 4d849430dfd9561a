package relay

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func noop(*Context) error { return nil }

func TestCompileRouteRejectsBadPatterns(t *testing.T) {
	t.Parallel()

	for _, pattern := range []string{"blogs", "/blogs/:", "/a/:id/b/:id"} {
		_, err := compileRoute(http.MethodGet, pattern, noop, nil)
		var patternErr *PatternError
		if !errors.As(err, &patternErr) {
			t.Errorf("%q: want *PatternError, got %v", pattern, err)
		}
	}
}

func TestDuplicateRouteFails(t *testing.T) {
	t.Parallel()
	g := NewEngine()

	if err := g.AddRoute(http.MethodGet, "/blogs/:id", noop); err != nil {
		t.Fatalf("first registration: %v", err)
	}

	err := g.AddRoute(http.MethodGet, "/blogs/:slug", noop)
	var dup *DuplicateRouteError
	if !errors.As(err, &dup) {
		t.Fatalf("want *DuplicateRouteError, got %v", err)
	}
	if dup.Pattern != "/blogs/:id" {
		t.Errorf("want the existing pattern in the error, got %q", dup.Pattern)
	}

	if err := g.AddRoute(http.MethodDelete, "/blogs/:id", noop); err != nil {
		t.Errorf("same pattern, other method: %v", err)
	}
}

func TestGetPanicsOnDuplicate(t *testing.T) {
	t.Parallel()
	g := NewEngine()
	g.Get("/about", noop)

	defer func() {
		if recover() == nil {
			t.Error("want panic on duplicate Get")
		}
	}()
	g.Get("/about", noop)
}

func TestMatch(t *testing.T) {
	t.Parallel()

	var table routeTable
	mustAdd := func(method, pattern string) *Route {
		r, err := compileRoute(method, pattern, noop, nil)
		if err != nil {
			t.Fatal(err)
		}
		if err := table.add(r); err != nil {
			t.Fatal(err)
		}
		return r
	}

	root := mustAdd(http.MethodGet, "/")
	list := mustAdd(http.MethodGet, "/blogs")
	byID := mustAdd(http.MethodGet, "/blogs/:id")
	create := mustAdd(http.MethodGet, "/blogs/create")
	comment := mustAdd(http.MethodGet, "/blogs/:id/comments/:n")
	post := mustAdd(http.MethodPost, "/blogs")
	headList := mustAdd(http.MethodHead, "/blogs")

	tests := []struct {
		method string
		path   string
		want   *Route
		params map[string]string
	}{
		{http.MethodGet, "/", root, nil},
		{http.MethodGet, "/blogs", list, nil},
		{http.MethodPost, "/blogs", post, nil},
		{http.MethodGet, "/blogs/42", byID, map[string]string{"id": "42"}},
		{http.MethodGet, "/blogs/create", create, nil},
		{http.MethodGet, "/blogs/hello%20world", byID, map[string]string{"id": "hello world"}},
		{http.MethodGet, "/blogs/a%2Fb", byID, map[string]string{"id": "a/b"}},
		{http.MethodGet, "/blogs/7/comments/3", comment, map[string]string{"id": "7", "n": "3"}},
		{http.MethodGet, "/blogs/", nil, nil},
		{http.MethodGet, "/blogs/42/extra", nil, nil},
		{http.MethodGet, "/blog", nil, nil},
		{http.MethodPut, "/blogs", nil, nil},
		{http.MethodGet, "/blogs/%zz", nil, nil},
		{http.MethodHead, "/blogs", headList, nil},
		{http.MethodHead, "/blogs/42", byID, map[string]string{"id": "42"}},
		{http.MethodHead, "/missing", nil, nil},
		{http.MethodPost, "/blogs/42", nil, nil},
	}

	for _, tt := range tests {
		got, params := table.match(tt.method, tt.path)
		if got != tt.want {
			t.Errorf("%s %s: matched %v, want %v", tt.method, tt.path, pattern(got), pattern(tt.want))
			continue
		}
		for k, v := range tt.params {
			if params[k] != v {
				t.Errorf("%s %s: param %s = %q, want %q", tt.method, tt.path, k, params[k], v)
			}
		}
	}
}

func TestMatchPrefersFirstParameterisedRoute(t *testing.T) {
	t.Parallel()

	var table routeTable
	first, _ := compileRoute(http.MethodGet, "/:a/x", noop, nil)
	second, _ := compileRoute(http.MethodGet, "/y/:b", noop, nil)
	table.add(first)
	table.add(second)

	got, params := table.match(http.MethodGet, "/y/x")
	if got != first {
		t.Fatalf("want %s, got %s", pattern(first), pattern(got))
	}
	if params["a"] != "y" {
		t.Errorf("want a=y, got %v", params)
	}
}

func TestRoutesFreezeOnFirstRequest(t *testing.T) {
	t.Parallel()
	g := NewEngine()
	g.SetOutput(io.Discard)
	g.Get("/", func(c *Context) error { return c.String(http.StatusOK, "ok") })

	g.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if err := g.AddRoute(http.MethodGet, "/late", noop); !errors.Is(err, ErrRoutesFrozen) {
		t.Errorf("want ErrRoutesFrozen, got %v", err)
	}
}

func pattern(r *Route) string {
	if r == nil {
		return "<nil>"
	}
	return r.method + " " + r.pattern
}
