// Package registry fetches named validation schemas from pluggable backends.
//
// Backend packages (registry/eventbridge, registry/apicurio) register
// themselves in the default catalog; Open resolves the configured kind to a
// backend before any network call is made. Wrap a backend with NewCached to
// avoid repeated fetches of the same schema.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/drblury/schemabus/internal/runtime/logging"
	"github.com/drblury/schemabus/schema"
)

var (
	// ErrSchemaNotFound reports that the backend could not resolve the
	// schema name.
	ErrSchemaNotFound = errors.New("schemabus: schema not found")
	// ErrUnsupportedKind reports a registry kind no backend is registered
	// for. Returned by Open before any client is built.
	ErrUnsupportedKind = errors.New("schemabus: unsupported registry kind")
)

// FetchError reports a network or backend failure while fetching a schema.
type FetchError struct {
	Backend    string
	SchemaName string
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("schemabus: failed to fetch schema %q from %s: %v", e.SchemaName, e.Backend, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Registry resolves schema names to compiled schemas.
type Registry interface {
	GetSchema(ctx context.Context, name string) (*schema.Schema, error)
}

// Config is the subset of the library configuration the backends need.
type Config interface {
	GetRegistryKind() string
	GetRegistryURL() string
	GetSchemaRegistryName() string
	GetAWSRegion() string
	GetAWSAccessKeyID() string
	GetAWSSecretAccessKey() string
	GetAWSEndpoint() string
}

// Builder constructs a backend from configuration.
type Builder func(ctx context.Context, cfg Config, logger logging.ServiceLogger) (Registry, error)

// Catalog maintains a mapping of registry kinds to their builders. Backend
// packages should register themselves using Register.
type Catalog struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

// DefaultCatalog is the global backend catalog.
var DefaultCatalog = NewCatalog()

// NewCatalog creates an empty backend catalog.
func NewCatalog() *Catalog {
	return &Catalog{builders: make(map[string]Builder)}
}

// Register adds a backend builder to the catalog. The kind should match the
// RegistryKind config value (e.g. "eventbridge", "apicurio").
func (c *Catalog) Register(kind string, builder Builder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.builders[kind] = builder
}

// Open builds a backend for the config's RegistryKind. An unregistered kind
// fails fast with ErrUnsupportedKind.
func (c *Catalog) Open(ctx context.Context, cfg Config, logger logging.ServiceLogger) (Registry, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	kind := cfg.GetRegistryKind()

	c.mu.RLock()
	builder, ok := c.builders[kind]
	c.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q (registered: %v)", ErrUnsupportedKind, kind, c.Kinds())
	}

	return builder(ctx, cfg, logger)
}

// Kinds returns the list of registered backend kinds.
func (c *Catalog) Kinds() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	kinds := make([]string, 0, len(c.builders))
	for kind := range c.builders {
		kinds = append(kinds, kind)
	}
	return kinds
}

// Has returns true if a backend is registered for the given kind.
func (c *Catalog) Has(kind string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.builders[kind]
	return ok
}

// Register adds a backend builder to the default catalog.
func Register(kind string, builder Builder) {
	DefaultCatalog.Register(kind, builder)
}

// Open builds a backend using the default catalog.
func Open(ctx context.Context, cfg Config, logger logging.ServiceLogger) (Registry, error) {
	return DefaultCatalog.Open(ctx, cfg, logger)
}

// NoteEnvelope logs how a fetched document was unwrapped. Backends call it
// once per fetch so ambiguous or envelope-less documents are visible.
func NoteEnvelope(logger logging.ServiceLogger, s *schema.Schema) {
	switch {
	case s.ComponentCount == 0:
		logger.Info("Schema carries no components.schemas envelope; validating against the raw document", logging.LogFields{
			"schema": s.Name,
		})
	case s.ComponentCount > 1:
		logger.Info("Schema carries multiple components.schemas entries; using the first key", logging.LogFields{
			"schema":        s.Name,
			"component_key": s.ComponentKey,
			"components":    s.ComponentCount,
		})
	}
}
