package ncache

import (
	"fmt"
	"sync"

	"github.com/gammazero/deque"

	"github.com/KukimiCan/aozora-api/fetch"
)

const defaultCapacity = 20

// Cache is a concurrency-safe FIFO queue of ready documents.
type Cache struct {
	mu       sync.Mutex
	docs     *deque.Deque[fetch.Document]
	capacity int
}

type config struct {
	capacity int
}

// Option is a function that sets a value in a config.
type Option func(*config) error

// getOpts creates a config and applies Options to it.
func getOpts(opts []Option) (config, error) {
	cfg := config{
		capacity: defaultCapacity,
	}
	for i, opt := range opts {
		if err := opt(&cfg); err != nil {
			return config{}, fmt.Errorf("option %d failed: %s", i, err)
		}
	}
	return cfg, nil
}

// WithCapacity sets the fill target the replenisher tries to keep the cache
// at. It is not a hard cap on the queue. Default is 20.
func WithCapacity(n int) Option {
	return func(cfg *config) error {
		if n < 1 {
			return fmt.Errorf("capacity must be at least 1: %d", n)
		}
		cfg.capacity = n
		return nil
	}
}

// New creates a new document cache.
func New(options ...Option) (*Cache, error) {
	opts, err := getOpts(options)
	if err != nil {
		return nil, err
	}
	return &Cache{
		docs:     deque.New[fetch.Document](),
		capacity: opts.capacity,
	}, nil
}

// Put appends a document at the tail of the queue. It always succeeds.
func (c *Cache) Put(doc fetch.Document) {
	c.mu.Lock()
	c.docs.PushBack(doc)
	c.mu.Unlock()
}

// TakeFront removes and returns the oldest document. It returns false when
// the cache is empty.
func (c *Cache) TakeFront() (fetch.Document, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.docs.Len() == 0 {
		return fetch.Document{}, false
	}
	return c.docs.PopFront(), true
}

// Len returns the number of cached documents.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.docs.Len()
}

// Capacity returns the configured fill target.
func (c *Cache) Capacity() int {
	return c.capacity
}

// Full reports whether the cache holds at least its fill target.
func (c *Cache) Full() bool {
	return c.Len() >= c.capacity
}
