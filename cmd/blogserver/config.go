package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	helpTextVerbose = `Development mode: colourised logs and request details.`
	helpTextDir     = `Directory served when no route matches. Empty disables static files.`
	helpTextPort    = `Port number that the server will listen and serve at. Defaults to $PORT or 3000.`
)

type config struct {
	addr        string
	staticDir   string
	verbose     bool
	timeout     time.Duration
	maxConns    int
	mongoURI    string
	mongoDB     string
	jwtSecret   string
	bodyLimit   int64
	notFoundTxt string
}

// parseConfig reads flags from args; environment variables provide defaults.
func parseConfig(args []string, getenv func(string) string) (config, error) {
	port := getenv("PORT")
	if port == "" {
		port = "3000"
	}

	var cfg config
	fs := flag.NewFlagSet("blogserver", flag.ContinueOnError)
	fs.BoolVar(&cfg.verbose, "v", false, helpTextVerbose)
	fs.StringVar(&cfg.staticDir, "d", "public", helpTextDir)
	fs.StringVar(&port, "p", port, helpTextPort)
	fs.StringVar(&cfg.addr, "host", "localhost", "Host to bind.")
	fs.DurationVar(&cfg.timeout, "timeout", 30*time.Second, "Per-request timeout; 0 disables it.")
	fs.IntVar(&cfg.maxConns, "max-conns", 0, "Maximum simultaneous connections; 0 means unlimited.")
	fs.StringVar(&cfg.mongoURI, "mongo", getenv("MONGODB_URI"), "MongoDB URI. Blogs are kept in memory when empty.")
	fs.StringVar(&cfg.mongoDB, "mongo-db", "relay", "MongoDB database name.")
	fs.StringVar(&cfg.jwtSecret, "jwt-secret", getenv("JWT_SECRET"), "HS256 secret guarding blog writes. Writes are open when empty.")
	fs.Int64Var(&cfg.bodyLimit, "body-limit", 1<<20, "Maximum request body size in bytes.")
	fs.StringVar(&cfg.notFoundTxt, "not-found", "Page not found", "Body of 404 responses.")

	if err := fs.Parse(args); err != nil {
		return config{}, err
	}

	n, err := strconv.Atoi(port)
	if err != nil || n < 0 || n > 65535 {
		return config{}, fmt.Errorf("invalid port %q", port)
	}
	if cfg.timeout < 0 {
		return config{}, fmt.Errorf("invalid timeout %s", cfg.timeout)
	}
	cfg.addr = fmt.Sprintf("%s:%d", cfg.addr, n)
	return cfg, nil
}

func loadConfig() (config, error) {
	return parseConfig(os.Args[1:], os.Getenv)
}
