package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/Ametion/relay"
	"github.com/Ametion/relay/internal/blogapi"
	"github.com/Ametion/relay/store"
)

var seed = []store.Blog{
	{Title: "First Blog", Snippet: "This is the first blog", Body: "Content of the first blog"},
	{Title: "Second Blog", Snippet: "This is the second blog", Body: "Content of the second blog"},
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := run(cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg config) error {
	s, closeDB, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	g, err := newEngine(cfg, s)
	if err != nil {
		return err
	}
	return g.Run(cfg.addr)
}

func newEngine(cfg config, s store.Store) (*relay.Engine, error) {
	g := relay.NewEngine()
	if cfg.verbose {
		g.IsDevelopment()
	}
	g.SetTimeout(cfg.timeout)
	g.SetMaxConnections(cfg.maxConns)
	g.SetNotFoundBody(cfg.notFoundTxt)
	if cfg.staticDir != "" {
		if err := g.SetStatic(cfg.staticDir); err != nil {
			return nil, err
		}
	}

	if cfg.verbose {
		g.UseMiddleware(relay.Logger())
	}
	g.UseMiddleware(relay.BodyLimit(cfg.bodyLimit))
	g.UseErrorMiddleware(func(c *relay.Context, err error) error {
		c.LogError(err)
		return c.String(http.StatusInternalServerError, "Something went wrong!")
	})

	var guard relay.MiddlewareFunc
	if cfg.jwtSecret != "" {
		guard = relay.RequireBearer([]byte(cfg.jwtSecret))
	}
	blogapi.Register(g, s, guard)
	return g, nil
}

func openStore(cfg config) (store.Store, func(), error) {
	if cfg.mongoURI == "" {
		return store.NewMemory(seed...), func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s, err := store.NewMongo(ctx, cfg.mongoURI, cfg.mongoDB)
	if err != nil {
		return nil, nil, err
	}
	fmt.Println("Connected to DB")
	return s, func() { closeStore(s, os.Stderr) }, nil
}

type closer interface {
	Close(ctx context.Context) error
}

// closeStore disconnects s, reporting a failure to stderr.
func closeStore(s closer, stderr io.Writer) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Close(ctx); err != nil {
		fmt.Fprintln(stderr, "close store:", err)
	}
}
