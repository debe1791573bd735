package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/c360studio/semsurvey/payload"
)

// EchoWriter prints accepted payloads instead of calling a real backend.
// Used by the ingest CLI command for dry runs.
type EchoWriter struct {
	Out io.Writer
}

// NewEchoWriter creates a writer printing to stdout.
func NewEchoWriter() *EchoWriter {
	return &EchoWriter{Out: os.Stdout}
}

// Write prints one payload as indented JSON.
func (w *EchoWriter) Write(_ context.Context, p *payload.Payload) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	fmt.Fprintln(w.Out, "== payload accepted ==")
	fmt.Fprintln(w.Out, string(data))
	return nil
}

// WriteMany prints each payload in turn.
func (w *EchoWriter) WriteMany(ctx context.Context, payloads []*payload.Payload) error {
	for _, p := range payloads {
		if err := w.Write(ctx, p); err != nil {
			return err
		}
	}
	return nil
}
