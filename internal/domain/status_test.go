package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want WorkOrderStatus
	}{
		{"open", StatusOpen},
		{"in_analysis", StatusInAnalysis},
		{"in_execution", StatusInExecution},
		{"paused", StatusPaused},
		{"completed", StatusCompleted},
		{"closed", StatusClosed},
		{"cancelled", StatusCancelled},
		// legacy aliases normalize at the boundary
		{"approved", StatusInAnalysis},
		{"scheduled", StatusInAnalysis},
		{"assigned", StatusInAnalysis},
		{"in_progress", StatusInExecution},
		// case and whitespace tolerant
		{" Paused ", StatusPaused},
		{"IN_PROGRESS", StatusInExecution},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseStatus(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseStatus_Unknown(t *testing.T) {
	for _, raw := range []string{"", "done", "on_hold", "reopened"} {
		_, err := ParseStatus(raw)
		assert.Error(t, err, "raw=%q", raw)
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, StatusClosed.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	for _, s := range []WorkOrderStatus{StatusOpen, StatusInAnalysis, StatusInExecution, StatusPaused, StatusCompleted} {
		assert.False(t, s.IsTerminal(), "status=%s", s)
	}
}

func TestParsePriority(t *testing.T) {
	got, err := ParsePriority("Critical")
	require.NoError(t, err)
	assert.Equal(t, PriorityCritical, got)

	_, err = ParsePriority("urgent")
	assert.Error(t, err)
}
