package runtime

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.opentelemetry.io/otel/attribute"

	"github.com/drblury/schemabus/internal/runtime/config"
	errs "github.com/drblury/schemabus/internal/runtime/errors"
	"github.com/drblury/schemabus/internal/runtime/ids"
	"github.com/drblury/schemabus/internal/runtime/jsoncodec"
	"github.com/drblury/schemabus/internal/runtime/logging"
	"github.com/drblury/schemabus/internal/runtime/metrics"
	"github.com/drblury/schemabus/registry"
	"github.com/drblury/schemabus/tracing"
)

// SQSAPI is the slice of the SQS client the consumer uses.
type SQSAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// Consumer polls an SQS queue, validates each message against a registry
// schema, and hands validated messages to a caller-supplied Handler. Messages
// are deleted from the queue only after the handler returns nil; every other
// outcome leaves the message for redelivery once its visibility timeout
// expires.
type Consumer struct {
	conf       config.Config
	client     SQSAPI
	registry   registry.Registry
	logger     logging.ServiceLogger
	tracer     *tracing.Client
	collectors *metrics.Collectors

	running atomic.Bool
}

// ConsumerOptions carries the optional consumer dependencies.
type ConsumerOptions struct {
	// Tracer links processing spans to trace context carried in message
	// payloads. Nil disables tracing.
	Tracer *tracing.Client
	// Collectors receives consume metrics. Nil disables them.
	Collectors *metrics.Collectors
}

// NewConsumer wires a consumer from its dependencies. The configuration is
// defaulted and validated here so Start cannot begin with broken settings.
func NewConsumer(conf *config.Config, client SQSAPI, reg registry.Registry, logger logging.ServiceLogger, opts ConsumerOptions) (*Consumer, error) {
	if conf == nil {
		return nil, errs.ErrConfigRequired
	}
	if client == nil {
		return nil, errs.ErrConfigRequired
	}
	if reg == nil {
		return nil, errs.ErrRegistryRequired
	}
	if logger == nil {
		return nil, errs.ErrLoggerRequired
	}
	if conf.QueueURL == "" {
		return nil, errs.ErrQueueURLRequired
	}
	if conf.SchemaName == "" {
		return nil, errs.ErrSchemaNameRequired
	}

	normalized := conf.WithDefaults()
	if err := normalized.Validate(); err != nil {
		return nil, errs.NewConfigValidationError(err)
	}

	tracer := opts.Tracer
	if tracer == nil {
		tracer = tracing.Noop()
	}

	return &Consumer{
		conf:       normalized,
		client:     client,
		registry:   reg,
		logger:     logger.With(logging.LogFields{"queue_url": normalized.QueueURL}),
		tracer:     tracer,
		collectors: opts.Collectors,
	}, nil
}

// Start runs the poll loop until Stop is called or ctx is cancelled. It
// returns nil on an orderly stop; a *CredentialError aborts the loop because
// retrying with broken credentials cannot succeed. Only one loop may run at a
// time.
func (c *Consumer) Start(ctx context.Context, handler Handler) error {
	if handler == nil {
		return errs.ErrHandlerRequired
	}
	if !c.running.CompareAndSwap(false, true) {
		return errs.ErrAlreadyRunning
	}
	defer c.running.Store(false)

	c.logger.Info("Consumer started", logging.LogFields{
		"schema":        c.conf.SchemaName,
		"poll_interval": c.conf.PollInterval.String(),
	})

	for {
		if !c.running.Load() {
			c.logger.Info("Consumer stopped", nil)
			return nil
		}
		if ctx.Err() != nil {
			c.logger.Info("Consumer context cancelled", nil)
			return nil
		}

		out, err := c.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(c.conf.QueueURL),
			MaxNumberOfMessages: c.conf.MaxMessages,
			WaitTimeSeconds:     int32(c.conf.WaitTime / time.Second),
			VisibilityTimeout:   int32(c.conf.VisibilityTimeout / time.Second),
		})
		switch {
		case err != nil && isCredentialError(err):
			c.logger.Error("Stopping consumer: AWS credentials rejected", err, nil)
			return &CredentialError{Err: err}
		case err != nil && ctx.Err() != nil:
			c.logger.Info("Consumer context cancelled", nil)
			return nil
		case err != nil:
			c.logger.Error("Failed to poll queue", err, nil)
		default:
			if n := len(out.Messages); n > 0 && c.collectors != nil {
				c.collectors.MessagesReceived.Add(float64(n))
			}
			for _, raw := range out.Messages {
				c.handleMessage(ctx, raw, handler)
			}
		}

		select {
		case <-ctx.Done():
			c.logger.Info("Consumer context cancelled", nil)
			return nil
		case <-time.After(c.conf.PollInterval):
		}
	}
}

// Stop signals the poll loop to exit after the current iteration. It is
// idempotent and safe to call before Start.
func (c *Consumer) Stop() {
	c.running.Store(false)
}

// handleMessage runs one message through parse, validate, handle, and delete.
// Failures are logged and counted; the message itself is simply left on the
// queue for redelivery.
func (c *Consumer) handleMessage(ctx context.Context, raw sqstypes.Message, handler Handler) {
	msg, err := c.parseMessage(raw)
	if err != nil {
		c.logger.Error("Failed to parse message body", err, logging.LogFields{
			"sqs_message_id": aws.ToString(raw.MessageId),
		})
		c.countProcessed("parse_error")
		return
	}

	logger := c.logger.With(logging.LogFields{
		"message_id":     msg.ID,
		"sqs_message_id": aws.ToString(raw.MessageId),
	})

	msgCtx := c.tracer.Extract(ctx, msg.Detail)
	msgCtx, span := c.tracer.Start(msgCtx, "schemabus.consume",
		attribute.String("messaging.message.id", aws.ToString(raw.MessageId)),
		attribute.String("event.detail_type", msg.DetailType),
	)
	defer span.End()

	s, err := c.registry.GetSchema(msgCtx, c.conf.SchemaName)
	if err != nil {
		logger.Error("Failed to fetch schema", err, logging.LogFields{"schema": c.conf.SchemaName})
		c.countProcessed("schema_error")
		return
	}
	if err := s.Validate(msg.Detail); err != nil {
		logger.Error("Message failed schema validation", err, logging.LogFields{"schema": c.conf.SchemaName})
		if c.collectors != nil {
			c.collectors.ValidationFailures.WithLabelValues("consumer").Inc()
		}
		c.countProcessed("validation_error")
		return
	}

	if !c.process(msgCtx, msg, handler, logger) {
		return
	}

	// Deletion uses the loop context, not the processing context, which may
	// already be past its deadline.
	if _, err := c.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.conf.QueueURL),
		ReceiptHandle: raw.ReceiptHandle,
	}); err != nil {
		logger.Error("Failed to delete message; it may be redelivered", err, nil)
		c.countProcessed("ack_error")
		return
	}

	c.countProcessed("success")
	logger.Debug("Message processed and deleted", nil)
}

// process invokes the handler under the processing timeout. Returns true only
// when the handler finished in time and returned nil. The handler runs in its
// own goroutine; on timeout it keeps running until it observes the cancelled
// context, but its eventual result is discarded.
func (c *Consumer) process(ctx context.Context, msg *Message, handler Handler, logger logging.ServiceLogger) bool {
	procCtx, cancel := context.WithTimeout(ctx, c.conf.ProcessingTimeout)
	defer cancel()

	start := time.Now()
	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("handler panicked: %v", r)
			}
		}()
		done <- handler(procCtx, msg)
	}()

	select {
	case err := <-done:
		if c.collectors != nil {
			c.collectors.ProcessingSeconds.Observe(time.Since(start).Seconds())
		}
		if err != nil {
			logger.Error("Processing failed; message left for redelivery", err, nil)
			c.countProcessed("handler_error")
			return false
		}
		return true
	case <-procCtx.Done():
		if c.collectors != nil {
			c.collectors.ProcessingSeconds.Observe(time.Since(start).Seconds())
		}
		if errors.Is(procCtx.Err(), context.DeadlineExceeded) {
			logger.Error("Processing timed out; message left for redelivery", procCtx.Err(), logging.LogFields{
				"timeout": c.conf.ProcessingTimeout.String(),
			})
			c.countProcessed("timeout")
		} else {
			logger.Info("Processing cancelled", nil)
			c.countProcessed("cancelled")
		}
		return false
	}
}

// parseMessage decodes the raw body and unwraps the EventBridge envelope when
// present. A body that is not a JSON object is rejected.
func (c *Consumer) parseMessage(raw sqstypes.Message) (*Message, error) {
	body := []byte(aws.ToString(raw.Body))

	obj, isObject, err := jsoncodec.UnmarshalObject(body)
	if err != nil {
		return nil, err
	}
	if !isObject {
		return nil, fmt.Errorf("message body is not a JSON object")
	}

	msg := &Message{
		ID:            ids.CreateULID(),
		Detail:        obj,
		RawBody:       body,
		QueueURL:      c.conf.QueueURL,
		ReceiptHandle: aws.ToString(raw.ReceiptHandle),
	}

	if detail, ok := obj["detail"].(map[string]any); ok {
		msg.Detail = detail
		if dt, ok := obj["detail-type"].(string); ok {
			msg.DetailType = dt
		}
	}

	return msg, nil
}

func (c *Consumer) countProcessed(result string) {
	if c.collectors != nil {
		c.collectors.MessagesProcessed.WithLabelValues(result).Inc()
	}
}
