// Package eventbridge provides an EventBridge Schemas backend for the schema
// registry.
package eventbridge

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/schemas"
	"github.com/aws/aws-sdk-go-v2/service/schemas/types"

	"github.com/drblury/schemabus/internal/runtime/awsutil"
	"github.com/drblury/schemabus/internal/runtime/logging"
	"github.com/drblury/schemabus/registry"
	"github.com/drblury/schemabus/schema"
)

// Kind is the config value that selects this backend.
const Kind = "eventbridge"

func init() {
	registry.Register(Kind, Build)
}

// DescribeSchemaAPI is the slice of the Schemas client the backend uses.
type DescribeSchemaAPI interface {
	DescribeSchema(ctx context.Context, params *schemas.DescribeSchemaInput, optFns ...func(*schemas.Options)) (*schemas.DescribeSchemaOutput, error)
}

// ClientFactory allows overriding the Schemas client creation for testing.
var ClientFactory = func(ctx context.Context, cfg registry.Config, logger logging.ServiceLogger) (DescribeSchemaAPI, error) {
	awsCfg, err := awsutil.LoadConfig(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return awsutil.NewSchemasClient(awsCfg, cfg)
}

// Build creates the backend from configuration.
func Build(ctx context.Context, cfg registry.Config, logger logging.ServiceLogger) (registry.Registry, error) {
	client, err := ClientFactory(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return New(client, cfg.GetSchemaRegistryName(), logger), nil
}

// Backend fetches schemas through the EventBridge Schemas DescribeSchema RPC.
type Backend struct {
	client       DescribeSchemaAPI
	registryName string
	logger       logging.ServiceLogger
}

// New builds a Backend around an existing client. registryName selects the
// Schemas registry holding the schemas, e.g. "discovered-schemas".
func New(client DescribeSchemaAPI, registryName string, logger logging.ServiceLogger) *Backend {
	return &Backend{
		client:       client,
		registryName: registryName,
		logger:       logger.With(logging.LogFields{"registry_kind": Kind}),
	}
}

// GetSchema resolves name through DescribeSchema and compiles the returned
// document.
func (b *Backend) GetSchema(ctx context.Context, name string) (*schema.Schema, error) {
	input := &schemas.DescribeSchemaInput{
		SchemaName: aws.String(name),
	}
	if b.registryName != "" {
		input.RegistryName = aws.String(b.registryName)
	}

	out, err := b.client.DescribeSchema(ctx, input)
	if err != nil {
		var notFound *types.NotFoundException
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: %q", registry.ErrSchemaNotFound, name)
		}
		b.logger.Error("Failed to fetch schema from EventBridge", err, logging.LogFields{"schema": name})
		return nil, &registry.FetchError{Backend: Kind, SchemaName: name, Err: err}
	}

	content := aws.ToString(out.Content)
	s, err := schema.Parse(name, []byte(content))
	if err != nil {
		return nil, &registry.FetchError{Backend: Kind, SchemaName: name, Err: err}
	}

	registry.NoteEnvelope(b.logger, s)
	return s, nil
}
