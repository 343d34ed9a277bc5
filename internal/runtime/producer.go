package runtime

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.opentelemetry.io/otel/attribute"

	errs "github.com/drblury/schemabus/internal/runtime/errors"
	"github.com/drblury/schemabus/internal/runtime/ids"
	"github.com/drblury/schemabus/internal/runtime/jsoncodec"
	"github.com/drblury/schemabus/internal/runtime/logging"
	"github.com/drblury/schemabus/internal/runtime/metrics"
	"github.com/drblury/schemabus/registry"
	"github.com/drblury/schemabus/tracing"
)

// EventBridgeAPI is the slice of the EventBridge client the producer uses.
type EventBridgeAPI interface {
	PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// Producer validates event payloads against a registry schema and publishes
// them to an EventBridge bus. Nothing reaches the network when validation
// fails.
type Producer struct {
	client     EventBridgeAPI
	registry   registry.Registry
	logger     logging.ServiceLogger
	tracer     *tracing.Client
	collectors *metrics.Collectors

	defaultBus string
}

// ProducerOptions carries the optional producer dependencies.
type ProducerOptions struct {
	// Tracer propagates trace context into published payloads. Nil disables
	// propagation.
	Tracer *tracing.Client
	// Collectors receives publish metrics. Nil disables them.
	Collectors *metrics.Collectors
	// DefaultEventBus is used when ProduceInput leaves EventBusName empty.
	DefaultEventBus string
}

// NewProducer wires a producer from its dependencies.
func NewProducer(client EventBridgeAPI, reg registry.Registry, logger logging.ServiceLogger, opts ProducerOptions) (*Producer, error) {
	if client == nil {
		return nil, errs.ErrConfigRequired
	}
	if reg == nil {
		return nil, errs.ErrRegistryRequired
	}
	if logger == nil {
		return nil, errs.ErrLoggerRequired
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = tracing.Noop()
	}

	return &Producer{
		client:     client,
		registry:   reg,
		logger:     logger,
		tracer:     tracer,
		collectors: opts.Collectors,
		defaultBus: opts.DefaultEventBus,
	}, nil
}

// Produce validates input.Detail against the named schema and publishes it as
// a single EventBridge entry. The trace context of ctx, when present, is
// injected into a copy of the detail under the trace_context field; the
// caller's map is never mutated.
func (p *Producer) Produce(ctx context.Context, input ProduceInput) (*PublishReceipt, error) {
	bus := input.EventBusName
	if bus == "" {
		bus = p.defaultBus
	}
	if bus == "" {
		return nil, errs.ErrEventBusRequired
	}
	if input.SchemaName == "" {
		return nil, errs.ErrSchemaNameRequired
	}
	if input.Detail == nil {
		return nil, errs.ErrDetailRequired
	}

	correlationID := ids.CreateULID()
	logger := p.logger.With(logging.LogFields{
		"correlation_id": correlationID,
		"event_bus":      bus,
		"detail_type":    input.DetailType,
	})

	ctx, span := p.tracer.Start(ctx, "schemabus.produce",
		attribute.String("messaging.destination.name", bus),
		attribute.String("event.detail_type", input.DetailType),
	)
	defer span.End()

	vctx, validateSpan := p.tracer.Start(ctx, "schemabus.validate",
		attribute.String("schema.name", input.SchemaName),
	)
	s, err := p.registry.GetSchema(vctx, input.SchemaName)
	if err != nil {
		validateSpan.End()
		logger.Error("Failed to fetch schema", err, logging.LogFields{"schema": input.SchemaName})
		p.countPublished("schema_error")
		return nil, err
	}
	if err := s.Validate(input.Detail); err != nil {
		validateSpan.End()
		logger.Error("Event failed schema validation", err, logging.LogFields{"schema": input.SchemaName})
		p.countPublished("validation_error")
		if p.collectors != nil {
			p.collectors.ValidationFailures.WithLabelValues("producer").Inc()
		}
		return nil, err
	}
	validateSpan.End()

	detail := make(map[string]any, len(input.Detail)+1)
	for k, v := range input.Detail {
		detail[k] = v
	}
	p.tracer.Inject(ctx, detail)

	payload, err := jsoncodec.Marshal(detail)
	if err != nil {
		logger.Error("Failed to encode event detail", err, nil)
		p.countPublished("encode_error")
		return nil, fmt.Errorf("schemabus: failed to encode event detail: %w", err)
	}

	pctx, publishSpan := p.tracer.Start(ctx, "schemabus.publish")
	out, err := p.client.PutEvents(pctx, &eventbridge.PutEventsInput{
		Entries: []types.PutEventsRequestEntry{{
			EventBusName: aws.String(bus),
			Source:       aws.String(input.Source),
			DetailType:   aws.String(input.DetailType),
			Detail:       aws.String(string(payload)),
		}},
	})
	publishSpan.End()

	if err != nil {
		logger.Error("Failed to publish event", err, nil)
		p.countPublished("error")
		return nil, &PublishError{Err: err}
	}
	if out.FailedEntryCount > 0 && len(out.Entries) > 0 {
		entry := out.Entries[0]
		err := fmt.Errorf("%s: %s", aws.ToString(entry.ErrorCode), aws.ToString(entry.ErrorMessage))
		logger.Error("Event bus rejected the entry", err, nil)
		p.countPublished("rejected")
		return nil, &PublishError{Err: err}
	}

	eventID := ""
	if len(out.Entries) > 0 {
		eventID = aws.ToString(out.Entries[0].EventId)
	}

	p.countPublished("success")
	logger.Debug("Event published", logging.LogFields{"event_id": eventID})

	return &PublishReceipt{EventID: eventID, CorrelationID: correlationID}, nil
}

func (p *Producer) countPublished(result string) {
	if p.collectors != nil {
		p.collectors.EventsPublished.WithLabelValues(result).Inc()
	}
}
