package blogapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Ametion/relay"
	"github.com/Ametion/relay/internal/blogapi"
	"github.com/Ametion/relay/store"
)

func newServer(t *testing.T, s store.Store, guard relay.MiddlewareFunc) *relay.Engine {
	t.Helper()
	g := relay.NewEngine()
	g.SetOutput(io.Discard)
	blogapi.Register(g, s, guard)
	return g
}

func seeded() *store.Memory {
	return store.NewMemory(
		store.Blog{Title: "First Blog", Snippet: "This is the first blog", Body: "Content of the first blog"},
		store.Blog{Title: "Second Blog", Snippet: "This is the second blog", Body: "Content of the second blog"},
	)
}

func serve(g http.Handler, r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	g.ServeHTTP(w, r)
	return w
}

func TestPages(t *testing.T) {
	t.Parallel()
	g := newServer(t, seeded(), nil)

	tests := []struct {
		path     string
		status   int
		contains string
		location string
	}{
		{"/", http.StatusOK, "Hello, World!", ""},
		{"/about", http.StatusOK, "About Page", ""},
		{"/about-us", http.StatusFound, "", "/about"},
		{"/about-me", http.StatusMovedPermanently, "", "/about"},
		{"/blogs/create", http.StatusOK, `<form action="/blogs"`, ""},
	}
	for _, tt := range tests {
		w := serve(g, httptest.NewRequest(http.MethodGet, tt.path, nil))
		if w.Code != tt.status {
			t.Errorf("%s: want %d, got %d", tt.path, tt.status, w.Code)
		}
		if !strings.Contains(w.Body.String(), tt.contains) {
			t.Errorf("%s: body %q lacks %q", tt.path, w.Body.String(), tt.contains)
		}
		if w.Header().Get("Location") != tt.location {
			t.Errorf("%s: location %q, want %q", tt.path, w.Header().Get("Location"), tt.location)
		}
	}
}

func TestEchoData(t *testing.T) {
	t.Parallel()
	g := newServer(t, seeded(), nil)

	w := serve(g, httptest.NewRequest(http.MethodPost, "/data", strings.NewReader("name=gopher")))
	var got map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v (%q)", err, w.Body.String())
	}
	if got["message"] != "Data received" || got["data"] != "name=gopher" {
		t.Errorf("unexpected echo: %v", got)
	}
}

func TestBlogLifecycle(t *testing.T) {
	t.Parallel()
	g := newServer(t, seeded(), nil)

	w := serve(g, httptest.NewRequest(http.MethodGet, "/blogs", nil))
	var list []store.Blog
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil || len(list) != 2 {
		t.Fatalf("list: %v %q", err, w.Body.String())
	}

	w = serve(g, httptest.NewRequest(http.MethodGet, "/blogs/2", nil))
	var blog store.Blog
	if err := json.Unmarshal(w.Body.Bytes(), &blog); err != nil || blog.Title != "Second Blog" {
		t.Fatalf("get: %v %q", err, w.Body.String())
	}

	r := httptest.NewRequest(http.MethodPost, "/blogs", strings.NewReader(`{"title":"Third","snippet":"s","body":"b"}`))
	r.Header.Set("Content-Type", "application/json")
	w = serve(g, r)
	if w.Code != http.StatusCreated {
		t.Fatalf("create json: want 201, got %d %q", w.Code, w.Body.String())
	}
	json.Unmarshal(w.Body.Bytes(), &blog)
	if blog.ID != "3" {
		t.Errorf("create json: want id 3, got %q", blog.ID)
	}

	r = httptest.NewRequest(http.MethodPost, "/blogs", strings.NewReader("title=Fourth&snippet=s&body=b"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = serve(g, r)
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/blogs" {
		t.Errorf("create form: want 302 to /blogs, got %d %q", w.Code, w.Header().Get("Location"))
	}

	w = serve(g, httptest.NewRequest(http.MethodDelete, "/blogs/1", nil))
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != `{"redirect":"/blogs"}` {
		t.Errorf("delete: got %d %q", w.Code, w.Body.String())
	}

	w = serve(g, httptest.NewRequest(http.MethodGet, "/blogs/1", nil))
	if w.Code != http.StatusNotFound || w.Body.String() != "Blog not found" {
		t.Errorf("get deleted: got %d %q", w.Code, w.Body.String())
	}
	w = serve(g, httptest.NewRequest(http.MethodDelete, "/blogs/1", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("delete twice: want 404, got %d", w.Code)
	}
}

func TestCreateValidation(t *testing.T) {
	t.Parallel()
	g := newServer(t, seeded(), nil)

	for _, body := range []string{`not-json`, `{"snippet":"no title"}`} {
		r := httptest.NewRequest(http.MethodPost, "/blogs", strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
		if w := serve(g, r); w.Code != http.StatusBadRequest {
			t.Errorf("%s: want 400, got %d", body, w.Code)
		}
	}
}

func TestGuardProtectsWrites(t *testing.T) {
	t.Parallel()
	deny := func(c *relay.Context) error {
		return c.String(http.StatusUnauthorized, "no")
	}
	g := newServer(t, seeded(), deny)

	if w := serve(g, httptest.NewRequest(http.MethodGet, "/blogs/1", nil)); w.Code != http.StatusOK {
		t.Errorf("reads must stay open, got %d", w.Code)
	}
	if w := serve(g, httptest.NewRequest(http.MethodDelete, "/blogs/1", nil)); w.Code != http.StatusUnauthorized {
		t.Errorf("delete: want 401, got %d", w.Code)
	}
	r := httptest.NewRequest(http.MethodPost, "/blogs", strings.NewReader(`{"title":"x"}`))
	if w := serve(g, r); w.Code != http.StatusUnauthorized {
		t.Errorf("create: want 401, got %d", w.Code)
	}
}

type failingStore struct{ store.Store }

func (failingStore) List(context.Context) ([]store.Blog, error) {
	return nil, errors.New("connection refused by 10.0.0.7")
}

func TestStoreFailureIsServerError(t *testing.T) {
	t.Parallel()
	g := newServer(t, failingStore{seeded()}, nil)

	w := serve(g, httptest.NewRequest(http.MethodGet, "/blogs", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("want 500, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "10.0.0.7") {
		t.Errorf("store error leaked: %q", w.Body.String())
	}
}
