package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/c360studio/semsurvey/payload"
)

// WriteError reports a non-2xx response from the remote graph backend.
type WriteError struct {
	// Context is "single" or "batch".
	Context string

	// StatusCode is the HTTP status returned by the backend.
	StatusCode int

	// Body is the response body, best effort.
	Body string
}

// Error implements the error interface.
func (e *WriteError) Error() string {
	return fmt.Sprintf("graph backend %s ingestion failed with status %d: %s",
		e.Context, e.StatusCode, e.Body)
}

// HTTPWriterConfig configures an HTTPWriter.
type HTTPWriterConfig struct {
	// BaseURL is the graph backend root, e.g. http://localhost:8080.
	BaseURL string

	// IngestPath is the single-payload endpoint path.
	IngestPath string

	// BatchPath is the batch endpoint path. Defaults to IngestPath/batch.
	BatchPath string

	// APIKey is sent as a bearer token when non-empty.
	APIKey string

	// Timeout bounds each request. Defaults to 10s.
	Timeout time.Duration

	// Client overrides the HTTP client, mainly for tests.
	Client *http.Client

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// HTTPWriter POSTs payloads to a remote graph backend over HTTP.
type HTTPWriter struct {
	ingestURL string
	batchURL  string
	apiKey    string
	client    *http.Client
	logger    *slog.Logger
}

// NewHTTPWriter creates a writer from config.
func NewHTTPWriter(cfg HTTPWriterConfig) (*HTTPWriter, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("graph backend base URL is required")
	}
	if cfg.IngestPath == "" {
		cfg.IngestPath = "/ingest"
	}
	if cfg.BatchPath == "" {
		cfg.BatchPath = strings.TrimRight(cfg.IngestPath, "/") + "/batch"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ingestURL, err := buildURL(cfg.BaseURL, cfg.IngestPath)
	if err != nil {
		return nil, fmt.Errorf("resolve ingest URL: %w", err)
	}
	batchURL, err := buildURL(cfg.BaseURL, cfg.BatchPath)
	if err != nil {
		return nil, fmt.Errorf("resolve batch URL: %w", err)
	}

	return &HTTPWriter{
		ingestURL: ingestURL,
		batchURL:  batchURL,
		apiKey:    cfg.APIKey,
		client:    client,
		logger:    logger,
	}, nil
}

// Write POSTs one payload to the ingest endpoint.
func (w *HTTPWriter) Write(ctx context.Context, p *payload.Payload) error {
	return w.post(ctx, w.ingestURL, p, "single")
}

// WriteMany POSTs a batch to the batch endpoint as {"payloads": [...]}.
func (w *HTTPWriter) WriteMany(ctx context.Context, payloads []*payload.Payload) error {
	body := struct {
		Payloads []*payload.Payload `json:"payloads"`
	}{Payloads: payloads}
	return w.post(ctx, w.batchURL, body, "batch")
}

func (w *HTTPWriter) post(ctx context.Context, endpoint string, body any, writeContext string) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", writeContext, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build %s request: %w", writeContext, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())
	if w.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+w.apiKey)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s ingestion request: %w", writeContext, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
	writeErr := &WriteError{
		Context:    writeContext,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(respBody)),
	}
	w.logger.Error("graph backend rejected write",
		"context", writeContext,
		"status", resp.StatusCode,
		"body", writeErr.Body)
	return writeErr
}

// buildURL joins a base URL and a path. Absolute paths pass through.
func buildURL(base, path string) (string, error) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path, nil
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")
	return u.String(), nil
}
