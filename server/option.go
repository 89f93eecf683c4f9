package server

import "fmt"

type config struct {
	listenAddr  string
	startServer bool
	origins     []string
}

// Option is a function that sets a value in a config.
type Option func(*config) error

// getOpts creates a config and applies Options to it.
func getOpts(opts []Option) (config, error) {
	cfg := config{
		listenAddr: "0.0.0.0:8000",
	}
	for i, opt := range opts {
		if err := opt(&cfg); err != nil {
			return config{}, fmt.Errorf("option %d failed: %s", i, err)
		}
	}
	return cfg, nil
}

// WithListenAddr sets the address the HTTP server listens on when started.
func WithListenAddr(addr string) Option {
	return func(cfg *config) error {
		if addr != "" {
			cfg.listenAddr = addr
		}
		return nil
	}
}

// WithStartServer, if true, starts an HTTP server listening on the
// configured address. An HTTP server is not started by default, in which
// case the caller mounts the Server as an http.Handler.
func WithStartServer(start bool) Option {
	return func(cfg *config) error {
		cfg.startServer = start
		return nil
	}
}

// WithAllowOrigins sets the origins that cross-origin requests are allowed
// from. No CORS headers are written when unset.
func WithAllowOrigins(origins ...string) Option {
	return func(cfg *config) error {
		for _, o := range origins {
			if o != "" {
				cfg.origins = append(cfg.origins, o)
			}
		}
		return nil
	}
}
