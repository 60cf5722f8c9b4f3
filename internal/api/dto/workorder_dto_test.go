package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateWorkOrderRequest_NullVersusAbsent(t *testing.T) {
	payload := `{
		"status": "paused",
		"pause_reason": "waiting on parts",
		"notes": null,
		"scheduled_at": null,
		"paused_at": "2026-04-01T10:00:00Z"
	}`

	var req UpdateWorkOrderRequest
	require.NoError(t, json.Unmarshal([]byte(payload), &req))

	require.NotNil(t, req.Status)
	assert.Equal(t, "paused", *req.Status)

	assert.True(t, req.PauseReason.Set)
	require.NotNil(t, req.PauseReason.Value)
	assert.Equal(t, "waiting on parts", *req.PauseReason.Value)

	// explicit null: present with nil value
	assert.True(t, req.Notes.Set)
	assert.Nil(t, req.Notes.Value)
	assert.True(t, req.ScheduledAt.Set)
	assert.Nil(t, req.ScheduledAt.Raw)

	// present with a value: raw string kept for later normalization
	assert.True(t, req.PausedAt.Set)
	require.NotNil(t, req.PausedAt.Raw)
	assert.Equal(t, "2026-04-01T10:00:00Z", *req.PausedAt.Raw)

	// absent: untouched
	assert.False(t, req.CancelReason.Set)
	assert.False(t, req.CompletedAt.Set)
	assert.Nil(t, req.Priority)
	assert.Nil(t, req.SLAExcludePause)
}
