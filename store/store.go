// Package store keeps blog posts behind a small interface so handlers do not
// depend on where they live.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no blog has the requested id.
var ErrNotFound = errors.New("store: blog not found")

// Blog is a single post.
type Blog struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Body    string `json:"body"`
}

// Store is implemented by Memory and MongoStore. Implementations are safe for
// concurrent use.
type Store interface {
	Get(ctx context.Context, id string) (Blog, error)
	List(ctx context.Context) ([]Blog, error)
	// Insert assigns the id and returns the stored blog.
	Insert(ctx context.Context, b Blog) (Blog, error)
	Delete(ctx context.Context, id string) error
}
