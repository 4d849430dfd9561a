// Package blogapi binds the blog pages and CRUD endpoints to an engine.
package blogapi

import (
	"errors"
	"mime"
	"net/http"

	"github.com/Ametion/relay"
	"github.com/Ametion/relay/store"
)

type api struct {
	store store.Store
}

// Register adds the pages and blog routes to g. When guard is not nil it runs
// before the routes that change blogs.
func Register(g *relay.Engine, s store.Store, guard relay.MiddlewareFunc) {
	a := &api{store: s}

	g.Get("/", page("<h1>Hello, World!</h1>"))
	g.Get("/about", page("<h1>About Page</h1>"))
	g.Get("/about-us", redirect("/about", http.StatusFound))
	g.Get("/about-me", redirect("/about", http.StatusMovedPermanently))
	g.Post("/data", echo)

	var writeGuard []relay.MiddlewareFunc
	if guard != nil {
		writeGuard = append(writeGuard, guard)
	}

	blogs := g.Group("/blogs")
	blogs.Get("", a.list)
	blogs.Get("/create", page(createForm))
	blogs.Get("/:id", a.get)
	blogs.Post("", a.create, writeGuard...)
	blogs.Delete("/:id", a.remove, writeGuard...)
}

const createForm = `<form action="/blogs" method="POST">` +
	`<input name="title"><input name="snippet"><textarea name="body"></textarea>` +
	`<button>Submit</button></form>`

func page(html string) relay.HandlerFunc {
	return func(c *relay.Context) error {
		return c.Send(http.StatusOK, "text/html; charset=utf-8", []byte(html))
	}
}

func redirect(to string, code int) relay.HandlerFunc {
	return func(c *relay.Context) error {
		return c.Redirect(to, code)
	}
}

func echo(c *relay.Context) error {
	body, err := c.Body()
	if err != nil {
		return err
	}
	return c.SendJSON(http.StatusOK, map[string]string{
		"message": "Data received",
		"data":    string(body),
	})
}

func (a *api) list(c *relay.Context) error {
	blogs, err := a.store.List(c.Context())
	if err != nil {
		return err
	}
	return c.SendJSON(http.StatusOK, blogs)
}

func (a *api) get(c *relay.Context) error {
	blog, err := a.store.Get(c.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		return c.String(http.StatusNotFound, "Blog not found")
	}
	if err != nil {
		return err
	}
	return c.SendJSON(http.StatusOK, blog)
}

// create accepts a JSON body or an HTML form. Forms are redirected back to the
// list, JSON clients get the stored blog.
func (a *api) create(c *relay.Context) error {
	mediaType, _, _ := mime.ParseMediaType(c.Headers.Get("Content-Type"))

	var blog store.Blog
	form := mediaType == "application/x-www-form-urlencoded"
	if form {
		blog = store.Blog{
			Title:   c.PostForm("title"),
			Snippet: c.PostForm("snippet"),
			Body:    c.PostForm("body"),
		}
	} else if err := c.BindJSON(&blog); err != nil {
		return c.SendJSON(http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
	}

	if blog.Title == "" {
		return c.SendJSON(http.StatusBadRequest, map[string]string{"error": "title is required"})
	}

	stored, err := a.store.Insert(c.Context(), blog)
	if err != nil {
		return err
	}
	if form {
		return c.Redirect("/blogs", http.StatusFound)
	}
	return c.SendJSON(http.StatusCreated, stored)
}

func (a *api) remove(c *relay.Context) error {
	err := a.store.Delete(c.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		return c.String(http.StatusNotFound, "Blog not found")
	}
	if err != nil {
		return err
	}
	return c.SendJSON(http.StatusOK, map[string]string{"redirect": "/blogs"})
}
