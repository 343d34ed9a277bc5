package awsutil

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/schemas"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drblury/schemabus/internal/runtime/logging"
)

type stubConfig struct {
	region    string
	accessKey string
	secretKey string
	endpoint  string
}

func (s stubConfig) GetAWSRegion() string          { return s.region }
func (s stubConfig) GetAWSAccessKeyID() string     { return s.accessKey }
func (s stubConfig) GetAWSSecretAccessKey() string { return s.secretKey }
func (s stubConfig) GetAWSEndpoint() string        { return s.endpoint }

func withStubLoader(t *testing.T, loaded aws.Config, err error) {
	t.Helper()
	original := DefaultConfigLoader
	DefaultConfigLoader = func(ctx context.Context, opts ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return loaded, err
	}
	t.Cleanup(func() { DefaultConfigLoader = original })
}

func TestLoadConfig(t *testing.T) {
	withStubLoader(t, aws.Config{}, nil)

	cfg, err := LoadConfig(context.Background(), stubConfig{region: "eu-west-1"}, logging.Nop())
	require.NoError(t, err)
	assert.Equal(t, "eu-west-1", cfg.Region)
}

func TestLoadConfigStaticCredentials(t *testing.T) {
	withStubLoader(t, aws.Config{Region: "us-east-1"}, nil)

	cfg, err := LoadConfig(context.Background(), stubConfig{
		accessKey: "key",
		secretKey: "secret",
	}, logging.Nop())
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", cfg.Region)
}

func TestLoadConfigEndpointOverride(t *testing.T) {
	withStubLoader(t, aws.Config{}, nil)

	cfg, err := LoadConfig(context.Background(), stubConfig{
		region:   "us-east-1",
		endpoint: "http://localhost:4566",
	}, logging.Nop())
	require.NoError(t, err)
	require.NotNil(t, cfg.BaseEndpoint)
	assert.Equal(t, "http://localhost:4566", *cfg.BaseEndpoint)
}

func TestLoadConfigLoaderError(t *testing.T) {
	withStubLoader(t, aws.Config{}, assert.AnError)

	_, err := LoadConfig(context.Background(), stubConfig{}, logging.Nop())
	assert.ErrorIs(t, err, assert.AnError)
}

func TestEndpointURL(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		u, err := EndpointURL(stubConfig{})
		require.NoError(t, err)
		assert.Nil(t, u)
	})

	t.Run("valid", func(t *testing.T) {
		u, err := EndpointURL(stubConfig{endpoint: "http://localhost:4566"})
		require.NoError(t, err)
		require.NotNil(t, u)
		assert.Equal(t, "localhost:4566", u.Host)
	})

	t.Run("nil config", func(t *testing.T) {
		u, err := EndpointURL(nil)
		require.NoError(t, err)
		assert.Nil(t, u)
	})
}

func TestNewClients(t *testing.T) {
	awsCfg := aws.Config{Region: "us-east-1"}
	conf := stubConfig{endpoint: "http://localhost:4566"}

	sqsClient, err := NewSQSClient(awsCfg, conf)
	require.NoError(t, err)
	assert.IsType(t, &sqs.Client{}, sqsClient)

	ebClient, err := NewEventBridgeClient(awsCfg, conf)
	require.NoError(t, err)
	assert.IsType(t, &eventbridge.Client{}, ebClient)

	schemasClient, err := NewSchemasClient(awsCfg, conf)
	require.NoError(t, err)
	assert.IsType(t, &schemas.Client{}, schemasClient)
}
