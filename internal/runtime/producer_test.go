package runtime

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	errs "github.com/drblury/schemabus/internal/runtime/errors"
	"github.com/drblury/schemabus/internal/runtime/jsoncodec"
	"github.com/drblury/schemabus/internal/runtime/logging"
	"github.com/drblury/schemabus/schema"
	"github.com/drblury/schemabus/tracing"
)

type fakeEventBridge struct {
	input *eventbridge.PutEventsInput
	out   *eventbridge.PutEventsOutput
	err   error
	calls int
}

func (f *fakeEventBridge) PutEvents(_ context.Context, params *eventbridge.PutEventsInput, _ ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	f.calls++
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	if f.out != nil {
		return f.out, nil
	}
	return &eventbridge.PutEventsOutput{
		Entries: []types.PutEventsResultEntry{{EventId: aws.String("evt-1")}},
	}, nil
}

type stubRegistry struct {
	schema *schema.Schema
	err    error
}

func (r stubRegistry) GetSchema(context.Context, string) (*schema.Schema, error) {
	return r.schema, r.err
}

func orderSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.Parse("order", []byte(`{
		"type": "object",
		"required": ["id"],
		"properties": {"id": {"type": "string"}}
	}`))
	require.NoError(t, err)
	return s
}

func newTestProducer(t *testing.T, client EventBridgeAPI, reg stubRegistry, opts ProducerOptions) *Producer {
	t.Helper()
	p, err := NewProducer(client, reg, logging.Nop(), opts)
	require.NoError(t, err)
	return p
}

func TestNewProducerRequiresDependencies(t *testing.T) {
	reg := stubRegistry{schema: orderSchema(t)}

	_, err := NewProducer(nil, reg, logging.Nop(), ProducerOptions{})
	assert.Error(t, err)

	_, err = NewProducer(&fakeEventBridge{}, nil, logging.Nop(), ProducerOptions{})
	assert.ErrorIs(t, err, errs.ErrRegistryRequired)

	_, err = NewProducer(&fakeEventBridge{}, reg, nil, ProducerOptions{})
	assert.ErrorIs(t, err, errs.ErrLoggerRequired)
}

func TestProduceSuccess(t *testing.T) {
	client := &fakeEventBridge{}
	p := newTestProducer(t, client, stubRegistry{schema: orderSchema(t)}, ProducerOptions{})

	receipt, err := p.Produce(context.Background(), ProduceInput{
		EventBusName: "orders-bus",
		Source:       "orders-service",
		DetailType:   "order.created",
		Detail:       map[string]any{"id": "o-1"},
		SchemaName:   "order",
	})
	require.NoError(t, err)
	assert.Equal(t, "evt-1", receipt.EventID)
	assert.NotEmpty(t, receipt.CorrelationID)

	require.Len(t, client.input.Entries, 1)
	entry := client.input.Entries[0]
	assert.Equal(t, "orders-bus", aws.ToString(entry.EventBusName))
	assert.Equal(t, "orders-service", aws.ToString(entry.Source))
	assert.Equal(t, "order.created", aws.ToString(entry.DetailType))
	assert.JSONEq(t, `{"id":"o-1"}`, aws.ToString(entry.Detail))
}

func TestProduceValidationFailureSkipsPublish(t *testing.T) {
	client := &fakeEventBridge{}
	p := newTestProducer(t, client, stubRegistry{schema: orderSchema(t)}, ProducerOptions{})

	_, err := p.Produce(context.Background(), ProduceInput{
		EventBusName: "orders-bus",
		SchemaName:   "order",
		Detail:       map[string]any{"id": float64(42)},
	})

	var valErr *schema.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "order", valErr.SchemaName)
	assert.Zero(t, client.calls)
}

func TestProduceSchemaFetchErrorSkipsPublish(t *testing.T) {
	client := &fakeEventBridge{}
	fetchErr := errors.New("registry down")
	p := newTestProducer(t, client, stubRegistry{err: fetchErr}, ProducerOptions{})

	_, err := p.Produce(context.Background(), ProduceInput{
		EventBusName: "orders-bus",
		SchemaName:   "order",
		Detail:       map[string]any{"id": "o-1"},
	})
	assert.ErrorIs(t, err, fetchErr)
	assert.Zero(t, client.calls)
}

func TestProduceRequiredInputs(t *testing.T) {
	p := newTestProducer(t, &fakeEventBridge{}, stubRegistry{schema: orderSchema(t)}, ProducerOptions{})

	_, err := p.Produce(context.Background(), ProduceInput{SchemaName: "order", Detail: map[string]any{}})
	assert.ErrorIs(t, err, errs.ErrEventBusRequired)

	_, err = p.Produce(context.Background(), ProduceInput{EventBusName: "b", Detail: map[string]any{}})
	assert.ErrorIs(t, err, errs.ErrSchemaNameRequired)

	_, err = p.Produce(context.Background(), ProduceInput{EventBusName: "b", SchemaName: "order"})
	assert.ErrorIs(t, err, errs.ErrDetailRequired)
}

func TestProduceDefaultEventBus(t *testing.T) {
	client := &fakeEventBridge{}
	p := newTestProducer(t, client, stubRegistry{schema: orderSchema(t)}, ProducerOptions{
		DefaultEventBus: "default-bus",
	})

	_, err := p.Produce(context.Background(), ProduceInput{
		SchemaName: "order",
		Detail:     map[string]any{"id": "o-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "default-bus", aws.ToString(client.input.Entries[0].EventBusName))
}

func TestProducePutEventsError(t *testing.T) {
	client := &fakeEventBridge{err: errors.New("throttled")}
	p := newTestProducer(t, client, stubRegistry{schema: orderSchema(t)}, ProducerOptions{})

	_, err := p.Produce(context.Background(), ProduceInput{
		EventBusName: "orders-bus",
		SchemaName:   "order",
		Detail:       map[string]any{"id": "o-1"},
	})

	var pubErr *PublishError
	require.ErrorAs(t, err, &pubErr)
}

func TestProduceFailedEntry(t *testing.T) {
	client := &fakeEventBridge{out: &eventbridge.PutEventsOutput{
		FailedEntryCount: 1,
		Entries: []types.PutEventsResultEntry{{
			ErrorCode:    aws.String("InternalException"),
			ErrorMessage: aws.String("try again"),
		}},
	}}
	p := newTestProducer(t, client, stubRegistry{schema: orderSchema(t)}, ProducerOptions{})

	_, err := p.Produce(context.Background(), ProduceInput{
		EventBusName: "orders-bus",
		SchemaName:   "order",
		Detail:       map[string]any{"id": "o-1"},
	})

	var pubErr *PublishError
	require.ErrorAs(t, err, &pubErr)
	assert.Contains(t, pubErr.Error(), "InternalException")
}

func TestProduceInjectsTraceContextWithoutMutatingInput(t *testing.T) {
	client := &fakeEventBridge{}
	p := newTestProducer(t, client, stubRegistry{schema: orderSchema(t)}, ProducerOptions{
		Tracer: tracing.New(nil, nil),
	})

	traceID, err := trace.TraceIDFromHex("0123456789abcdef0123456789abcdef")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("0123456789abcdef")
	require.NoError(t, err)
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	detail := map[string]any{"id": "o-1"}
	_, err = p.Produce(ctx, ProduceInput{
		EventBusName: "orders-bus",
		SchemaName:   "order",
		Detail:       detail,
	})
	require.NoError(t, err)

	assert.NotContains(t, detail, tracing.TraceContextField)

	sent, isObject, err := jsoncodec.UnmarshalObject([]byte(aws.ToString(client.input.Entries[0].Detail)))
	require.NoError(t, err)
	require.True(t, isObject)
	assert.Contains(t, sent, tracing.TraceContextField)
	assert.Equal(t, "o-1", sent["id"])
}
