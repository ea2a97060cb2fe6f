package queue

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngestJobCodec(t *testing.T) {
	job := &IngestJob{ID: "6fa8c2de-1111-2222-3333-444455556666", Date: "2026-03-01", Attempt: 2}

	payload, err := json.Marshal(job)
	require.NoError(t, err)

	var decoded IngestJob
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, *job, decoded)
}

func TestBackoffDelay(t *testing.T) {
	base := 5 * time.Second

	assert.Equal(t, 5*time.Second, BackoffDelay(base, 1))
	assert.Equal(t, 10*time.Second, BackoffDelay(base, 2))
	assert.Equal(t, 20*time.Second, BackoffDelay(base, 3))
	assert.Equal(t, 40*time.Second, BackoffDelay(base, 4))

	// Caps at five minutes no matter how many attempts accumulated
	assert.Equal(t, 5*time.Minute, BackoffDelay(base, 20))
	assert.Equal(t, 5*time.Minute, BackoffDelay(10*time.Minute, 1))
}
