// Package replenish keeps the document cache filled from the background.
//
// A Replenisher owns one goroutine that polls the cache at a fixed interval
// and, whenever the cache is below its fill target, runs a single fetch and
// appends the result. Fetch failures are logged and never stop the loop; the
// next tick simply draws another entry. The fixed pause also bounds the
// request rate against the archive. Because fetching happens on this
// goroutine only, request handling is never blocked by replenishment.
package replenish

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	logging "github.com/ipfs/go-log/v2"

	"github.com/KukimiCan/aozora-api/fetch"
	"github.com/KukimiCan/aozora-api/ncache"
)

var log = logging.Logger("replenish")

const defaultInterval = time.Second

// Fetcher is the source of documents for the cache.
type Fetcher interface {
	FetchOne(context.Context) (fetch.Document, error)
}

// Replenisher is the background producer for a document cache. Create it
// with New, start the loop with Start, and stop it with Close.
type Replenisher struct {
	cache    *ncache.Cache
	fetcher  Fetcher
	interval time.Duration

	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
	started   bool
}

type config struct {
	interval time.Duration
}

// Option is a function that sets a value in a config.
type Option func(*config) error

// getOpts creates a config and applies Options to it.
func getOpts(opts []Option) (config, error) {
	cfg := config{
		interval: defaultInterval,
	}
	for i, opt := range opts {
		if err := opt(&cfg); err != nil {
			return config{}, fmt.Errorf("option %d failed: %s", i, err)
		}
	}
	return cfg, nil
}

// WithInterval sets the fixed pause between replenish iterations. Default is
// one second.
func WithInterval(interval time.Duration) Option {
	return func(cfg *config) error {
		if interval <= 0 {
			return fmt.Errorf("interval must be positive: %s", interval)
		}
		cfg.interval = interval
		return nil
	}
}

// New creates a Replenisher filling cache from f. The loop is not running
// until Start is called.
func New(cache *ncache.Cache, f Fetcher, options ...Option) (*Replenisher, error) {
	opts, err := getOpts(options)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Replenisher{
		cache:    cache,
		fetcher:  f,
		interval: opts.interval,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}, nil
}

// Start launches the background loop. Calling Start more than once has no
// effect.
func (r *Replenisher) Start() {
	r.startOnce.Do(func() {
		r.started = true
		go r.run()
	})
}

// Close stops the loop, canceling any in-flight fetch, and waits for the
// goroutine to exit. It is safe to call Close without Start, and to call it
// more than once.
func (r *Replenisher) Close() {
	r.stopOnce.Do(r.cancel)
	if r.started {
		<-r.done
	}
}

func (r *Replenisher) run() {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.Replenish(r.ctx)
		}
	}
}

// Replenish runs exactly one iteration of the loop body: if the cache is at
// or above its fill target nothing happens, otherwise one document is
// fetched and appended. It reports whether a document was added. Exposed so
// callers and tests can run a bounded number of iterations without the
// ticker.
func (r *Replenisher) Replenish(ctx context.Context) bool {
	if r.cache.Full() {
		return false
	}

	log.Debugw("Replenishing cache", "len", r.cache.Len(), "capacity", r.cache.Capacity())

	doc, err := r.fetcher.FetchOne(ctx)
	if err != nil {
		// Never fatal. Skipped entries are routine; anything else is worth
		// seeing in the logs.
		if errors.Is(err, fetch.ErrSkipped) {
			log.Debugw("Entry skipped", "err", err)
		} else {
			log.Infow("Cannot fetch document", "err", err)
		}
		return false
	}

	r.cache.Put(doc)
	log.Debugw("Cached document", "title", doc.Title, "len", r.cache.Len())
	return true
}
