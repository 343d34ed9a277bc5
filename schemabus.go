package schemabus

import (
	"context"

	runtimepkg "github.com/drblury/schemabus/internal/runtime"
	"github.com/drblury/schemabus/internal/runtime/awsutil"
	errspkg "github.com/drblury/schemabus/internal/runtime/errors"
	registrypkg "github.com/drblury/schemabus/registry"
	tracingpkg "github.com/drblury/schemabus/tracing"

	// Registry backends register themselves in the default catalog.
	_ "github.com/drblury/schemabus/registry/apicurio"
	_ "github.com/drblury/schemabus/registry/eventbridge"
)

// ConsumerDependencies lets callers swap out pieces of the consumer wiring.
// Every field is optional: nil fields are built from the configuration.
type ConsumerDependencies struct {
	// SQSClient overrides the SQS client built from the AWS configuration.
	SQSClient SQSAPI
	// Registry overrides backend resolution through the catalog.
	Registry SchemaRegistry
	// Cache overrides the schema cache fronting the registry backend.
	Cache SchemaCache
	// Tracer is required for trace propagation; it is only used when
	// Config.TracingEnabled is set.
	Tracer *TracingClient
	// Metrics receives consume and registry metrics. Nil disables them.
	Metrics *Metrics
}

// ProducerDependencies lets callers swap out pieces of the producer wiring.
// Every field is optional: nil fields are built from the configuration.
type ProducerDependencies struct {
	// EventBridgeClient overrides the client built from the AWS configuration.
	EventBridgeClient EventBridgeAPI
	// Registry overrides backend resolution through the catalog.
	Registry SchemaRegistry
	// Cache overrides the schema cache fronting the registry backend.
	Cache SchemaCache
	// Tracer is required for trace propagation; it is only used when
	// Config.TracingEnabled is set.
	Tracer *TracingClient
	// Metrics receives publish and registry metrics. Nil disables them.
	Metrics *Metrics
}

// NewConsumerFromConfig builds a ready-to-start consumer: it resolves the
// registry backend for Config.RegistryKind, fronts it with a bounded schema
// cache, and builds an SQS client from the AWS settings. Supply
// ConsumerDependencies fields to replace any of those pieces.
func NewConsumerFromConfig(ctx context.Context, conf *Config, logger ServiceLogger, deps ConsumerDependencies) (*Consumer, error) {
	if conf == nil {
		return nil, errspkg.ErrConfigRequired
	}
	if logger == nil {
		return nil, errspkg.ErrLoggerRequired
	}
	normalized := conf.WithDefaults()

	reg, err := buildRegistry(ctx, &normalized, logger, deps.Registry, deps.Cache, deps.Metrics)
	if err != nil {
		return nil, err
	}

	client := deps.SQSClient
	if client == nil {
		awsCfg, err := awsutil.LoadConfig(ctx, &normalized, logger)
		if err != nil {
			return nil, err
		}
		client, err = awsutil.NewSQSClient(awsCfg, &normalized)
		if err != nil {
			return nil, err
		}
	}

	if deps.Metrics != nil {
		if err := deps.Metrics.Register(); err != nil {
			return nil, err
		}
	}

	return runtimepkg.NewConsumer(&normalized, client, reg, logger, ConsumerOptions{
		Tracer:     tracerFor(&normalized, deps.Tracer),
		Collectors: deps.Metrics,
	})
}

// NewProducerFromConfig builds a producer the same way NewConsumerFromConfig
// builds a consumer. Config.EventBusName becomes the default bus for
// ProduceInput values that leave EventBusName empty.
func NewProducerFromConfig(ctx context.Context, conf *Config, logger ServiceLogger, deps ProducerDependencies) (*Producer, error) {
	if conf == nil {
		return nil, errspkg.ErrConfigRequired
	}
	if logger == nil {
		return nil, errspkg.ErrLoggerRequired
	}
	normalized := conf.WithDefaults()

	reg, err := buildRegistry(ctx, &normalized, logger, deps.Registry, deps.Cache, deps.Metrics)
	if err != nil {
		return nil, err
	}

	client := deps.EventBridgeClient
	if client == nil {
		awsCfg, err := awsutil.LoadConfig(ctx, &normalized, logger)
		if err != nil {
			return nil, err
		}
		client, err = awsutil.NewEventBridgeClient(awsCfg, &normalized)
		if err != nil {
			return nil, err
		}
	}

	if deps.Metrics != nil {
		if err := deps.Metrics.Register(); err != nil {
			return nil, err
		}
	}

	return runtimepkg.NewProducer(client, reg, logger, ProducerOptions{
		Tracer:          tracerFor(&normalized, deps.Tracer),
		Collectors:      deps.Metrics,
		DefaultEventBus: normalized.EventBusName,
	})
}

// buildRegistry resolves the backend and fronts it with a cache. An explicit
// registry is used as-is, uncached; an explicit cache replaces the built-in
// one.
func buildRegistry(ctx context.Context, conf *Config, logger ServiceLogger, reg SchemaRegistry, cache SchemaCache, collectors *Metrics) (SchemaRegistry, error) {
	if reg != nil {
		return reg, nil
	}

	backend, err := registrypkg.Open(ctx, conf, logger)
	if err != nil {
		return nil, err
	}

	if cache == nil {
		if conf.SchemaCacheTTL > 0 {
			cache = registrypkg.NewExpirableCache(conf.SchemaCacheSize, conf.SchemaCacheTTL)
		} else {
			cache, err = registrypkg.NewLRUCache(conf.SchemaCacheSize)
			if err != nil {
				return nil, err
			}
		}
	}

	return registrypkg.NewCached(backend, cache, logger, collectors)
}

func tracerFor(conf *Config, tracer *TracingClient) *TracingClient {
	if conf.TracingEnabled && tracer != nil {
		return tracer
	}
	return tracingpkg.Noop()
}
