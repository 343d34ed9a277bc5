// Package awsutil builds AWS SDK configuration and service clients shared by
// the consumer, producer, and EventBridge schema registry backend.
package awsutil

import (
	"context"
	"fmt"
	"net/url"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/schemas"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	smithyendpoints "github.com/aws/smithy-go/endpoints"

	"github.com/drblury/schemabus/internal/runtime/logging"
)

// Config is the subset of the library configuration needed to build AWS
// clients.
type Config interface {
	GetAWSRegion() string
	GetAWSAccessKeyID() string
	GetAWSSecretAccessKey() string
	GetAWSEndpoint() string
}

// DefaultConfigLoader allows overriding the AWS config loader for testing.
var DefaultConfigLoader = awsconfig.LoadDefaultConfig

// LoadConfig resolves the AWS SDK configuration, honouring the region, static
// credentials, and custom endpoint overrides from cfg.
func LoadConfig(ctx context.Context, cfg Config, logger logging.ServiceLogger) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error

	if cfg != nil {
		if region := cfg.GetAWSRegion(); region != "" {
			logger.Debug("Setting AWS region from config", logging.LogFields{"region": region})
			opts = append(opts, awsconfig.WithRegion(region))
		}
		accessKey := cfg.GetAWSAccessKeyID()
		secretKey := cfg.GetAWSSecretAccessKey()
		if accessKey != "" && secretKey != "" {
			logger.Debug("Using static AWS credentials from config", logging.LogFields{})
			opts = append(opts, awsconfig.WithCredentialsProvider(staticCredentialsProvider(accessKey, secretKey)))
		}
	}

	awsCfg, err := DefaultConfigLoader(ctx, opts...)
	if err != nil {
		logger.Error("Failed to load AWS default config", err, logging.LogFields{})
		return aws.Config{}, err
	}

	// Ensure region is set even if the loader ignores options
	if cfg != nil && cfg.GetAWSRegion() != "" {
		awsCfg.Region = cfg.GetAWSRegion()
	}
	if cfg != nil && cfg.GetAWSEndpoint() != "" {
		awsCfg.BaseEndpoint = aws.String(cfg.GetAWSEndpoint())
	}

	return awsCfg, nil
}

// EndpointURL parses the custom endpoint from cfg. Returns nil when no
// override is configured.
func EndpointURL(cfg Config) (*url.URL, error) {
	if cfg == nil || cfg.GetAWSEndpoint() == "" {
		return nil, nil
	}

	parsed, err := url.Parse(cfg.GetAWSEndpoint())
	if err != nil {
		return nil, fmt.Errorf("failed to parse AWS endpoint: %w", err)
	}
	return parsed, nil
}

// SQSEndpointResolver pins every SQS request to a fixed endpoint, e.g. a
// LocalStack instance.
type SQSEndpointResolver struct {
	Endpoint smithyendpoints.Endpoint
}

func (r SQSEndpointResolver) ResolveEndpoint(_ context.Context, _ sqs.EndpointParameters) (smithyendpoints.Endpoint, error) {
	return r.Endpoint, nil
}

// EventBridgeEndpointResolver pins every EventBridge request to a fixed endpoint.
type EventBridgeEndpointResolver struct {
	Endpoint smithyendpoints.Endpoint
}

func (r EventBridgeEndpointResolver) ResolveEndpoint(_ context.Context, _ eventbridge.EndpointParameters) (smithyendpoints.Endpoint, error) {
	return r.Endpoint, nil
}

// SchemasEndpointResolver pins every Schemas request to a fixed endpoint.
type SchemasEndpointResolver struct {
	Endpoint smithyendpoints.Endpoint
}

func (r SchemasEndpointResolver) ResolveEndpoint(_ context.Context, _ schemas.EndpointParameters) (smithyendpoints.Endpoint, error) {
	return r.Endpoint, nil
}

// NewSQSClient builds an SQS client, applying the endpoint override when
// configured.
func NewSQSClient(awsCfg aws.Config, cfg Config) (*sqs.Client, error) {
	endpoint, err := EndpointURL(cfg)
	if err != nil {
		return nil, err
	}
	var optFns []func(*sqs.Options)
	if endpoint != nil {
		optFns = append(optFns, sqs.WithEndpointResolverV2(SQSEndpointResolver{
			Endpoint: smithyendpoints.Endpoint{URI: *endpoint},
		}))
	}
	return sqs.NewFromConfig(awsCfg, optFns...), nil
}

// NewEventBridgeClient builds an EventBridge client, applying the endpoint
// override when configured.
func NewEventBridgeClient(awsCfg aws.Config, cfg Config) (*eventbridge.Client, error) {
	endpoint, err := EndpointURL(cfg)
	if err != nil {
		return nil, err
	}
	var optFns []func(*eventbridge.Options)
	if endpoint != nil {
		optFns = append(optFns, eventbridge.WithEndpointResolverV2(EventBridgeEndpointResolver{
			Endpoint: smithyendpoints.Endpoint{URI: *endpoint},
		}))
	}
	return eventbridge.NewFromConfig(awsCfg, optFns...), nil
}

// NewSchemasClient builds an EventBridge Schemas client, applying the
// endpoint override when configured.
func NewSchemasClient(awsCfg aws.Config, cfg Config) (*schemas.Client, error) {
	endpoint, err := EndpointURL(cfg)
	if err != nil {
		return nil, err
	}
	var optFns []func(*schemas.Options)
	if endpoint != nil {
		optFns = append(optFns, schemas.WithEndpointResolverV2(SchemasEndpointResolver{
			Endpoint: smithyendpoints.Endpoint{URI: *endpoint},
		}))
	}
	return schemas.NewFromConfig(awsCfg, optFns...), nil
}

func staticCredentialsProvider(accessKeyID, secretAccessKey string) aws.CredentialsProvider {
	return aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
		return aws.Credentials{
			AccessKeyID:     accessKeyID,
			SecretAccessKey: secretAccessKey,
		}, nil
	})
}
