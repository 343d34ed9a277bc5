package schemabus

import (
	runtimepkg "github.com/drblury/schemabus/internal/runtime"
	configpkg "github.com/drblury/schemabus/internal/runtime/config"
	errspkg "github.com/drblury/schemabus/internal/runtime/errors"
	idspkg "github.com/drblury/schemabus/internal/runtime/ids"
	jsoncodec "github.com/drblury/schemabus/internal/runtime/jsoncodec"
	loggingpkg "github.com/drblury/schemabus/internal/runtime/logging"
	metricspkg "github.com/drblury/schemabus/internal/runtime/metrics"
	registrypkg "github.com/drblury/schemabus/registry"
	schemapkg "github.com/drblury/schemabus/schema"
	tracingpkg "github.com/drblury/schemabus/tracing"
)

type (
	Config = configpkg.Config

	Consumer        = runtimepkg.Consumer
	ConsumerOptions = runtimepkg.ConsumerOptions
	Producer        = runtimepkg.Producer
	ProducerOptions = runtimepkg.ProducerOptions
	Message         = runtimepkg.Message
	Handler         = runtimepkg.Handler
	ProduceInput    = runtimepkg.ProduceInput
	PublishReceipt  = runtimepkg.PublishReceipt
	SQSAPI          = runtimepkg.SQSAPI
	EventBridgeAPI  = runtimepkg.EventBridgeAPI

	SchemaRegistry  = registrypkg.Registry
	RegistryCatalog = registrypkg.Catalog
	RegistryBuilder = registrypkg.Builder
	SchemaCache     = registrypkg.SchemaCache
	Schema          = schemapkg.Schema

	LogFields     = loggingpkg.LogFields
	ServiceLogger = loggingpkg.ServiceLogger

	TracingClient = tracingpkg.Client
	Metrics       = metricspkg.Collectors

	// Error types
	ConfigValidationError = errspkg.ConfigValidationError
	ValidationError       = schemapkg.ValidationError
	FetchError            = registrypkg.FetchError
	PublishError          = runtimepkg.PublishError
	CredentialError       = runtimepkg.CredentialError
)

var (
	ConfigFromEnv = configpkg.FromEnv

	NewConsumer = runtimepkg.NewConsumer
	NewProducer = runtimepkg.NewProducer

	OpenRegistry      = registrypkg.Open
	RegisterRegistry  = registrypkg.Register
	NewCachedRegistry = registrypkg.NewCached
	NewLRUCache       = registrypkg.NewLRUCache
	NewExpirableCache = registrypkg.NewExpirableCache
	ParseSchema       = schemapkg.Parse

	NewSlogServiceLogger      = loggingpkg.NewSlogServiceLogger
	NewWatermillServiceLogger = loggingpkg.NewWatermillServiceLogger

	NewTracingClient  = tracingpkg.New
	NoopTracingClient = tracingpkg.Noop

	NewMetrics = metricspkg.New

	Marshal   = jsoncodec.Marshal
	Unmarshal = jsoncodec.Unmarshal
	Encode    = jsoncodec.Encode
	Decode    = jsoncodec.Decode

	CreateULID = idspkg.CreateULID

	ErrConfigRequired     = errspkg.ErrConfigRequired
	ErrLoggerRequired     = errspkg.ErrLoggerRequired
	ErrRegistryRequired   = errspkg.ErrRegistryRequired
	ErrHandlerRequired    = errspkg.ErrHandlerRequired
	ErrQueueURLRequired   = errspkg.ErrQueueURLRequired
	ErrSchemaNameRequired = errspkg.ErrSchemaNameRequired
	ErrEventBusRequired   = errspkg.ErrEventBusRequired
	ErrDetailRequired     = errspkg.ErrDetailRequired
	ErrAlreadyRunning     = errspkg.ErrAlreadyRunning
	ErrSchemaNotFound     = registrypkg.ErrSchemaNotFound
	ErrUnsupportedKind    = registrypkg.ErrUnsupportedKind
)

// TraceContextField is the reserved detail field used for trace propagation.
const TraceContextField = tracingpkg.TraceContextField
