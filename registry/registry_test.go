package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drblury/schemabus/internal/runtime/logging"
	"github.com/drblury/schemabus/schema"
)

type stubConfig struct {
	kind string
	url  string
}

func (s stubConfig) GetRegistryKind() string       { return s.kind }
func (s stubConfig) GetRegistryURL() string        { return s.url }
func (s stubConfig) GetSchemaRegistryName() string { return "" }
func (s stubConfig) GetAWSRegion() string          { return "" }
func (s stubConfig) GetAWSAccessKeyID() string     { return "" }
func (s stubConfig) GetAWSSecretAccessKey() string { return "" }
func (s stubConfig) GetAWSEndpoint() string        { return "" }

type stubRegistry struct{}

func (stubRegistry) GetSchema(context.Context, string) (*schema.Schema, error) { return nil, nil }

func TestCatalogRegisterAndOpen(t *testing.T) {
	catalog := NewCatalog()
	catalog.Register("stub", func(ctx context.Context, cfg Config, logger logging.ServiceLogger) (Registry, error) {
		return stubRegistry{}, nil
	})

	assert.True(t, catalog.Has("stub"))
	assert.Contains(t, catalog.Kinds(), "stub")

	reg, err := catalog.Open(context.Background(), stubConfig{kind: "stub"}, logging.Nop())
	require.NoError(t, err)
	assert.NotNil(t, reg)
}

func TestCatalogOpenUnsupportedKind(t *testing.T) {
	catalog := NewCatalog()

	_, err := catalog.Open(context.Background(), stubConfig{kind: "consul"}, logging.Nop())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedKind)
	assert.Contains(t, err.Error(), "consul")
}

func TestCatalogOpenNilConfig(t *testing.T) {
	catalog := NewCatalog()
	_, err := catalog.Open(context.Background(), nil, logging.Nop())
	assert.Error(t, err)
}

func TestDefaultCatalogHasBuiltins(t *testing.T) {
	// The backend packages self-register in init; this package does not
	// import them, so the default catalog starts empty here.
	assert.NotNil(t, DefaultCatalog)
}

func TestFetchError(t *testing.T) {
	inner := assert.AnError
	err := &FetchError{Backend: "apicurio", SchemaName: "orders", Err: inner}

	assert.Contains(t, err.Error(), "apicurio")
	assert.Contains(t, err.Error(), `"orders"`)
	assert.ErrorIs(t, err, inner)
}
