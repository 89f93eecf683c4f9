package fetch

import (
	"fmt"
	"net/http"
	"time"

	aozoraapi "github.com/KukimiCan/aozora-api"
)

const (
	// defaultBaseURL is the Aozora Bunko archive root that relative card
	// locators are resolved against.
	defaultBaseURL = "https://www.aozora.gr.jp/"

	defaultTimeout = time.Minute
)

type config struct {
	baseURL   string
	client    *http.Client
	timeout   time.Duration
	userAgent string
}

// Option is a function that sets a value in a config.
type Option func(*config) error

// getOpts creates a config and applies Options to it.
func getOpts(opts []Option) (config, error) {
	cfg := config{
		baseURL:   defaultBaseURL,
		timeout:   defaultTimeout,
		userAgent: "aozora-api/" + aozoraapi.Release,
	}
	for i, opt := range opts {
		if err := opt(&cfg); err != nil {
			return config{}, fmt.Errorf("option %d failed: %s", i, err)
		}
	}
	return cfg, nil
}

// WithBaseURL sets the archive address that relative locators are resolved
// against. Default is the public Aozora Bunko site.
func WithBaseURL(u string) Option {
	return func(cfg *config) error {
		if u != "" {
			cfg.baseURL = u
		}
		return nil
	}
}

// WithClient uses an existing http.Client instead of the default retryable
// client. Mainly useful for tests.
func WithClient(c *http.Client) Option {
	return func(cfg *config) error {
		if c != nil {
			cfg.client = c
		}
		return nil
	}
}

// WithTimeout configures the timeout to wait for a document response.
func WithTimeout(timeout time.Duration) Option {
	return func(cfg *config) error {
		cfg.timeout = timeout
		return nil
	}
}

// WithUserAgent sets the value used for the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(cfg *config) error {
		cfg.userAgent = userAgent
		return nil
	}
}
