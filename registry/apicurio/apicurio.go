// Package apicurio provides an Apicurio artifact-store backend for the
// schema registry.
package apicurio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	errs "github.com/drblury/schemabus/internal/runtime/errors"
	"github.com/drblury/schemabus/internal/runtime/logging"
	"github.com/drblury/schemabus/registry"
	"github.com/drblury/schemabus/schema"
)

// Kind is the config value that selects this backend.
const Kind = "apicurio"

// RequestTimeout bounds every artifact fetch.
const RequestTimeout = 5 * time.Second

func init() {
	registry.Register(Kind, Build)
}

// HTTPClientFactory allows overriding the HTTP client creation for testing.
var HTTPClientFactory = func() *http.Client {
	return &http.Client{Timeout: RequestTimeout}
}

// Build creates the backend from configuration.
func Build(_ context.Context, cfg registry.Config, logger logging.ServiceLogger) (registry.Registry, error) {
	baseURL := cfg.GetRegistryURL()
	if baseURL == "" {
		return nil, errs.NewConfigValidationError(fmt.Errorf("apicurio: registry URL is required"))
	}
	return New(baseURL, HTTPClientFactory(), logger), nil
}

// Backend fetches artifacts from the Apicurio registry v2 HTTP API.
type Backend struct {
	baseURL string
	client  *http.Client
	logger  logging.ServiceLogger
}

// New builds a Backend around an existing HTTP client.
func New(baseURL string, client *http.Client, logger logging.ServiceLogger) *Backend {
	if client == nil {
		client = HTTPClientFactory()
	}
	return &Backend{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		logger:  logger.With(logging.LogFields{"registry_kind": Kind}),
	}
}

// GetSchema fetches the artifact with the given id from the default group
// and compiles the returned document.
func (b *Backend) GetSchema(ctx context.Context, name string) (*schema.Schema, error) {
	artifactURL := fmt.Sprintf("%s/apis/registry/v2/groups/default/artifacts/%s", b.baseURL, url.PathEscape(name))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, artifactURL, nil)
	if err != nil {
		return nil, &registry.FetchError{Backend: Kind, SchemaName: name, Err: err}
	}

	resp, err := b.client.Do(req)
	if err != nil {
		b.logger.Error("Failed to retrieve schema from Apicurio", err, logging.LogFields{"schema": name, "url": artifactURL})
		return nil, &registry.FetchError{Backend: Kind, SchemaName: name, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %q", registry.ErrSchemaNotFound, name)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := fmt.Errorf("unexpected status %d", resp.StatusCode)
		b.logger.Error("Failed to retrieve schema from Apicurio", err, logging.LogFields{"schema": name, "url": artifactURL})
		return nil, &registry.FetchError{Backend: Kind, SchemaName: name, Err: err}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &registry.FetchError{Backend: Kind, SchemaName: name, Err: err}
	}

	s, err := schema.Parse(name, body)
	if err != nil {
		return nil, &registry.FetchError{Backend: Kind, SchemaName: name, Err: err}
	}

	registry.NoteEnvelope(b.logger, s)
	return s, nil
}
