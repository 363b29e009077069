package worker

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailWorkerSkipsBadPayloads(t *testing.T) {
	w := NewEmailWorker(nil)
	ctx := context.Background()

	// Malformed JSON and missing recipients are dropped, not retried.
	assert.NoError(t, w.Process(ctx, json.RawMessage(`{not json`)))

	payload, err := json.Marshal(EmailJobPayload{Subject: "report"})
	require.NoError(t, err)
	assert.NoError(t, w.Process(ctx, payload))
}
