package apicurio

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/drblury/schemabus/internal/runtime/errors"
	"github.com/drblury/schemabus/internal/runtime/logging"
	"github.com/drblury/schemabus/registry"
)

type stubConfig struct {
	url string
}

func (s stubConfig) GetRegistryKind() string       { return Kind }
func (s stubConfig) GetRegistryURL() string        { return s.url }
func (s stubConfig) GetSchemaRegistryName() string { return "" }
func (s stubConfig) GetAWSRegion() string          { return "" }
func (s stubConfig) GetAWSAccessKeyID() string     { return "" }
func (s stubConfig) GetAWSSecretAccessKey() string { return "" }
func (s stubConfig) GetAWSEndpoint() string        { return "" }

func TestKindRegistered(t *testing.T) {
	assert.True(t, registry.DefaultCatalog.Has(Kind))
}

func TestBuildRequiresURL(t *testing.T) {
	_, err := Build(context.Background(), stubConfig{}, logging.Nop())
	require.Error(t, err)

	var cfgErr errs.ConfigValidationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestGetSchema(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"components":{"schemas":{"Foo":{"type":"object"}}}}`))
	}))
	defer server.Close()

	backend := New(server.URL, server.Client(), logging.Nop())

	s, err := backend.GetSchema(context.Background(), "foo-artifact")
	require.NoError(t, err)
	assert.Equal(t, "/apis/registry/v2/groups/default/artifacts/foo-artifact", gotPath)
	assert.JSONEq(t, `{"type":"object"}`, string(s.Document()))
}

func TestGetSchemaRawDocument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"type":"object","required":["x"]}`))
	}))
	defer server.Close()

	backend := New(server.URL, server.Client(), logging.Nop())

	s, err := backend.GetSchema(context.Background(), "orders")
	require.NoError(t, err)
	assert.Zero(t, s.ComponentCount)
	assert.NoError(t, s.Validate(map[string]any{"x": float64(1)}))
}

func TestGetSchemaNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	backend := New(server.URL, server.Client(), logging.Nop())

	_, err := backend.GetSchema(context.Background(), "missing")
	assert.ErrorIs(t, err, registry.ErrSchemaNotFound)
}

func TestGetSchemaServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	backend := New(server.URL, server.Client(), logging.Nop())

	_, err := backend.GetSchema(context.Background(), "orders")
	var fetchErr *registry.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, Kind, fetchErr.Backend)
}

func TestGetSchemaUnreachable(t *testing.T) {
	backend := New("http://127.0.0.1:1", &http.Client{}, logging.Nop())

	_, err := backend.GetSchema(context.Background(), "orders")
	var fetchErr *registry.FetchError
	assert.ErrorAs(t, err, &fetchErr)
}

func TestGetSchemaTrailingSlashBase(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"type":"object"}`))
	}))
	defer server.Close()

	backend := New(server.URL+"/", server.Client(), logging.Nop())

	_, err := backend.GetSchema(context.Background(), "orders")
	require.NoError(t, err)
	assert.Equal(t, "/apis/registry/v2/groups/default/artifacts/orders", gotPath)
}
