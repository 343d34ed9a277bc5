package registry

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"

	errs "github.com/drblury/schemabus/internal/runtime/errors"
	"github.com/drblury/schemabus/internal/runtime/logging"
	"github.com/drblury/schemabus/internal/runtime/metrics"
	"github.com/drblury/schemabus/schema"
)

// DefaultCacheSize bounds the schema cache when no size is configured.
const DefaultCacheSize = 100

// SchemaCache is the replaceable caching strategy used by NewCached. Entries
// are immutable once inserted, so implementations only need to be safe for
// concurrent access, not for in-place updates.
type SchemaCache interface {
	Get(name string) (*schema.Schema, bool)
	Add(name string, s *schema.Schema)
}

type lruCache struct {
	inner *lru.Cache[string, *schema.Schema]
}

// NewLRUCache returns a bounded cache evicting least-recently-used entries
// beyond size. Sizes below 1 fall back to DefaultCacheSize.
func NewLRUCache(size int) (SchemaCache, error) {
	if size < 1 {
		size = DefaultCacheSize
	}
	inner, err := lru.New[string, *schema.Schema](size)
	if err != nil {
		return nil, err
	}
	return &lruCache{inner: inner}, nil
}

func (c *lruCache) Get(name string) (*schema.Schema, bool) { return c.inner.Get(name) }
func (c *lruCache) Add(name string, s *schema.Schema)      { c.inner.Add(name, s) }

type expirableCache struct {
	inner *expirable.LRU[string, *schema.Schema]
}

// NewExpirableCache returns a bounded LRU cache whose entries also expire
// after ttl. Sizes below 1 fall back to DefaultCacheSize.
func NewExpirableCache(size int, ttl time.Duration) SchemaCache {
	if size < 1 {
		size = DefaultCacheSize
	}
	return &expirableCache{inner: expirable.NewLRU[string, *schema.Schema](size, nil, ttl)}
}

func (c *expirableCache) Get(name string) (*schema.Schema, bool) { return c.inner.Get(name) }
func (c *expirableCache) Add(name string, s *schema.Schema)      { c.inner.Add(name, s) }

// Cached decorates a backend with a schema cache. Repeated lookups of the
// same name return the cached value without a backend round trip until the
// entry is evicted or expires.
type Cached struct {
	backend    Registry
	cache      SchemaCache
	logger     logging.ServiceLogger
	collectors *metrics.Collectors
}

// NewCached wraps backend with cache. collectors may be nil.
func NewCached(backend Registry, cache SchemaCache, logger logging.ServiceLogger, collectors *metrics.Collectors) (*Cached, error) {
	if backend == nil {
		return nil, errs.ErrRegistryRequired
	}
	if logger == nil {
		return nil, errs.ErrLoggerRequired
	}
	if cache == nil {
		var err error
		cache, err = NewLRUCache(DefaultCacheSize)
		if err != nil {
			return nil, err
		}
	}
	return &Cached{backend: backend, cache: cache, logger: logger, collectors: collectors}, nil
}

// GetSchema returns the cached schema for name, fetching it from the backend
// on a miss.
func (c *Cached) GetSchema(ctx context.Context, name string) (*schema.Schema, error) {
	if s, ok := c.cache.Get(name); ok {
		if c.collectors != nil {
			c.collectors.SchemaCacheHits.Inc()
		}
		c.logger.Trace("Schema cache hit", logging.LogFields{"schema": name})
		return s, nil
	}

	if c.collectors != nil {
		c.collectors.SchemaCacheMisses.Inc()
	}

	s, err := c.backend.GetSchema(ctx, name)
	if err != nil {
		if c.collectors != nil {
			c.collectors.SchemaFetches.WithLabelValues("error").Inc()
		}
		return nil, err
	}
	if c.collectors != nil {
		c.collectors.SchemaFetches.WithLabelValues("success").Inc()
	}

	c.cache.Add(name, s)
	return s, nil
}
