package runtime

import (
	"context"
	"fmt"
)

// Handler is the caller-supplied processing logic the consumer invokes for
// every validated message. Returning an error abandons the message so the
// queue redelivers it after the visibility timeout expires. The context is
// cancelled when the processing timeout elapses; cancellation of the
// underlying work is best-effort.
type Handler func(ctx context.Context, msg *Message) error

// Message is one received queue message after parsing and validation.
type Message struct {
	// ID is a ULID assigned by the consumer for log correlation.
	ID string
	// DetailType is the envelope's detail-type field, when present.
	DetailType string
	// Detail is the validated payload: the envelope's detail object, or the
	// whole body when the message was not enveloped.
	Detail map[string]any
	// RawBody is the unparsed message body.
	RawBody []byte
	// QueueURL identifies the queue the message came from.
	QueueURL string
	// ReceiptHandle is the opaque acknowledgment token for this delivery.
	ReceiptHandle string
}

// ProduceInput describes one event to publish.
type ProduceInput struct {
	// EventBusName is the EventBridge bus to publish to.
	EventBusName string
	// Source identifies the emitting service.
	Source string
	// DetailType classifies the event.
	DetailType string
	// Detail is the event payload. It is validated against SchemaName before
	// anything reaches the network.
	Detail map[string]any
	// SchemaName resolves the validation schema through the registry.
	SchemaName string
}

// PublishReceipt reports a successfully published event.
type PublishReceipt struct {
	// EventID is the id EventBridge assigned to the entry.
	EventID string
	// CorrelationID is the ULID the producer attached to this publish
	// attempt in its logs.
	CorrelationID string
}

// PublishError reports a failed put-events call. Validation failures are
// never wrapped in it; they surface as *schema.ValidationError instead.
type PublishError struct {
	Err error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("schemabus: failed to publish event: %v", e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

// CredentialError reports an authorization failure on the poll call. The
// consumer treats it as fatal and stops its loop instead of retrying.
type CredentialError struct {
	Err error
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("schemabus: invalid AWS credentials: %v", e.Err)
}

func (e *CredentialError) Unwrap() error { return e.Err }
