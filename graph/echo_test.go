package graph

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semsurvey/payload"
)

func TestEchoWriter(t *testing.T) {
	var buf bytes.Buffer
	w := &EchoWriter{Out: &buf}

	require.NoError(t, w.Write(context.Background(), samplePayload()))
	out := buf.String()
	assert.Contains(t, out, "== payload accepted ==")
	assert.Contains(t, out, `"observation_type": "survey"`)

	buf.Reset()
	err := w.WriteMany(context.Background(), []*payload.Payload{samplePayload(), samplePayload()})
	require.NoError(t, err)
	assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("== payload accepted ==")))
}
