package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/c360studio/semstreams/message"
	"github.com/c360studio/semstreams/natsclient"

	"github.com/c360studio/semsurvey/payload"
)

// IngestSubject is the stream subject graph entities are published to.
const IngestSubject = "graph.ingest.entity"

// EntityIngestMessage is the message format for graph ingestion.
// Matches the format consumed by the downstream graph components.
type EntityIngestMessage struct {
	ID        string           `json:"id"`
	Triples   []message.Triple `json:"triples"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// NATSWriter publishes payloads as triple entities on the graph ingest
// stream. Each payload becomes one entity message.
type NATSWriter struct {
	nc      *natsclient.Client
	subject string
	logger  *slog.Logger
}

// NATSWriterOption configures a NATSWriter.
type NATSWriterOption func(*NATSWriter)

// WithSubject overrides the default ingest subject.
func WithSubject(subject string) NATSWriterOption {
	return func(w *NATSWriter) {
		if subject != "" {
			w.subject = subject
		}
	}
}

// WithNATSLogger sets the writer's logger.
func WithNATSLogger(logger *slog.Logger) NATSWriterOption {
	return func(w *NATSWriter) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewNATSWriter creates a writer over an already-connected NATS client.
func NewNATSWriter(nc *natsclient.Client, opts ...NATSWriterOption) *NATSWriter {
	w := &NATSWriter{
		nc:      nc,
		subject: IngestSubject,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write publishes one payload to the graph ingest stream.
func (w *NATSWriter) Write(ctx context.Context, p *payload.Payload) error {
	return w.publish(ctx, p)
}

// WriteMany publishes a batch. Entities are published one message each;
// there is no transactional batch on the stream, so a failure may leave
// earlier entities published.
func (w *NATSWriter) WriteMany(ctx context.Context, payloads []*payload.Payload) error {
	for i, p := range payloads {
		if err := w.publish(ctx, p); err != nil {
			return fmt.Errorf("publish batch item %d: %w", i, err)
		}
	}
	return nil
}

func (w *NATSWriter) publish(ctx context.Context, p *payload.Payload) error {
	now := time.Now()
	entityID := ObservationEntityID(p)

	msg := EntityIngestMessage{
		ID:        entityID,
		Triples:   Triples(entityID, p, now),
		UpdatedAt: now,
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal observation entity: %w", err)
	}

	if err := w.nc.PublishToStream(ctx, w.subject, data); err != nil {
		return fmt.Errorf("publish observation entity: %w", err)
	}

	w.logger.Debug("published observation entity",
		"entity_id", entityID,
		"subject", w.subject,
		"triples", len(msg.Triples))
	return nil
}
