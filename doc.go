// Package schemabus is a thin client layer over AWS messaging that keeps
// event payloads honest. A Consumer polls an SQS queue, validates every
// message against a schema fetched from a registry, and hands conforming
// payloads to your handler; a Producer validates payloads against the same
// registry before publishing them to an EventBridge bus. Nothing invalid is
// processed and nothing invalid leaves the process.
//
// Schemas come from pluggable registry backends: the EventBridge Schemas
// service ("eventbridge") or an Apicurio artifact store ("apicurio").
// Backends register themselves in a catalog, fetched documents have their
// OpenAPI components.schemas envelope unwrapped, and a bounded LRU cache
// (optionally with TTL) sits in front of every backend.
//
// A minimal setup fills Config, creates a consumer or producer with
// NewConsumerFromConfig / NewProducerFromConfig, and calls Start or Produce.
// Both constructors also accept pre-built clients through their dependency
// structs, which is how tests and LocalStack setups plug in.
//
// # Delivery semantics
//
// The consumer deletes a message only after the handler returns nil within
// the processing timeout. Parse failures, validation failures, handler errors,
// and timeouts all leave the message on the queue for redelivery once its
// visibility timeout expires, so processing must be idempotent.
//
// # Tracing
//
// With TracingEnabled, the producer injects the active OpenTelemetry span
// context into the outgoing detail under the trace_context field and the
// consumer extracts it again, linking consumer spans to the producing trace.
// Span exporters and provider lifecycle stay with the application.
package schemabus
