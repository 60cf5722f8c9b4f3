package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/workorder-service/internal/domain"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestDeadline_FromPriority(t *testing.T) {
	created := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		priority domain.WorkOrderPriority
		hours    int
	}{
		{domain.PriorityLow, 96},
		{domain.PriorityMedium, 72},
		{domain.PriorityHigh, 24},
		{domain.PriorityCritical, 8},
	}
	for _, tt := range tests {
		t.Run(string(tt.priority), func(t *testing.T) {
			got := Deadline(tt.priority, nil, created, nil)
			assert.Equal(t, created.Add(time.Duration(tt.hours)*time.Hour), got)
		})
	}
}

func TestDeadline_ScheduledBaseAndOverride(t *testing.T) {
	created := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	scheduled := created.Add(48 * time.Hour)

	got := Deadline(domain.PriorityHigh, &scheduled, created, nil)
	assert.Equal(t, scheduled.Add(24*time.Hour), got, "scheduled time wins over creation time")

	override := created.Add(6 * time.Hour)
	got = Deadline(domain.PriorityHigh, &scheduled, created, &override)
	assert.Equal(t, override, got, "explicit deadline overrides the computed one")
}

func TestPauseAccounting_EnterPaused(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	order := &domain.WorkOrder{
		Status:          domain.StatusInExecution,
		SLAExcludePause: true,
	}

	pausedMS, pauseStart := PauseAccounting(order, domain.StatusPaused, now)
	assert.Nil(t, pausedMS)
	require.True(t, pauseStart.Set)
	require.NotNil(t, pauseStart.Value)
	assert.Equal(t, now, *pauseStart.Value)
}

func TestPauseAccounting_EnterPaused_MarkerAlreadySet(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	order := &domain.WorkOrder{
		Status:            domain.StatusInExecution,
		SLAExcludePause:   true,
		SLAPauseStartedAt: timePtr(now.Add(-time.Hour)),
	}

	pausedMS, pauseStart := PauseAccounting(order, domain.StatusPaused, now)
	assert.Nil(t, pausedMS)
	assert.False(t, pauseStart.Set, "an existing marker must not be overwritten")
}

func TestPauseAccounting_ResumeFlushesDelta(t *testing.T) {
	start := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	now := start.Add(2 * time.Hour)
	order := &domain.WorkOrder{
		Status:            domain.StatusPaused,
		SLAExcludePause:   true,
		SLAPausedMS:       (30 * time.Minute).Milliseconds(),
		SLAPauseStartedAt: &start,
	}

	pausedMS, pauseStart := PauseAccounting(order, domain.StatusInExecution, now)
	require.NotNil(t, pausedMS)
	assert.Equal(t, (2*time.Hour + 30*time.Minute).Milliseconds(), *pausedMS)
	require.True(t, pauseStart.Set)
	assert.Nil(t, pauseStart.Value, "marker must be cleared on resume")
}

func TestPauseAccounting_CancelFromPausedFlushesDelta(t *testing.T) {
	start := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	now := start.Add(45 * time.Minute)
	order := &domain.WorkOrder{
		Status:            domain.StatusPaused,
		SLAExcludePause:   true,
		SLAPauseStartedAt: &start,
	}

	pausedMS, pauseStart := PauseAccounting(order, domain.StatusCancelled, now)
	require.NotNil(t, pausedMS)
	assert.Equal(t, (45 * time.Minute).Milliseconds(), *pausedMS)
	require.True(t, pauseStart.Set)
	assert.Nil(t, pauseStart.Value)
}

func TestPauseAccounting_ClampsNegativeDelta(t *testing.T) {
	start := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	order := &domain.WorkOrder{
		Status:            domain.StatusPaused,
		SLAExcludePause:   true,
		SLAPausedMS:       1000,
		SLAPauseStartedAt: &start,
	}

	// clock skew: "now" before the recorded pause start
	pausedMS, _ := PauseAccounting(order, domain.StatusInExecution, start.Add(-time.Minute))
	require.NotNil(t, pausedMS)
	assert.Equal(t, int64(1000), *pausedMS, "accumulator must never decrease")
}

func TestPauseAccounting_ExcludePauseOff(t *testing.T) {
	start := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	order := &domain.WorkOrder{
		Status:          domain.StatusInExecution,
		SLAExcludePause: false,
	}

	pausedMS, pauseStart := PauseAccounting(order, domain.StatusPaused, start)
	assert.Nil(t, pausedMS)
	assert.False(t, pauseStart.Set)

	order.Status = domain.StatusPaused
	order.SLAPauseStartedAt = &start
	pausedMS, pauseStart = PauseAccounting(order, domain.StatusInExecution, start.Add(time.Hour))
	assert.Nil(t, pausedMS)
	assert.False(t, pauseStart.Set)
}

func TestPauseAccounting_Monotonic(t *testing.T) {
	// N pause/resume cycles: the accumulator equals the sum of the measured
	// pause durations and never decreases.
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	order := &domain.WorkOrder{
		Status:          domain.StatusInExecution,
		SLAExcludePause: true,
	}

	var expected int64
	durations := []time.Duration{15 * time.Minute, 2 * time.Hour, 5 * time.Second, 90 * time.Minute}
	for _, d := range durations {
		_, pauseStart := PauseAccounting(order, domain.StatusPaused, now)
		require.True(t, pauseStart.Set)
		order.Status = domain.StatusPaused
		order.SLAPauseStartedAt = pauseStart.Value

		now = now.Add(d)
		pausedMS, pauseStart := PauseAccounting(order, domain.StatusInExecution, now)
		require.NotNil(t, pausedMS)
		require.GreaterOrEqual(t, *pausedMS, order.SLAPausedMS)
		order.Status = domain.StatusInExecution
		order.SLAPausedMS = *pausedMS
		order.SLAPauseStartedAt = pauseStart.Value

		expected += d.Milliseconds()
		assert.Equal(t, expected, order.SLAPausedMS)
	}
}

func TestExcludePauseToggle_DisableFlushesPendingDelta(t *testing.T) {
	start := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	now := start.Add(time.Hour)
	order := &domain.WorkOrder{
		Status:            domain.StatusPaused,
		SLAExcludePause:   true,
		SLAPausedMS:       (10 * time.Minute).Milliseconds(),
		SLAPauseStartedAt: &start,
	}

	pausedMS, pauseStart := ExcludePauseToggle(order, domain.StatusPaused, false, now)
	require.NotNil(t, pausedMS)
	assert.Equal(t, (time.Hour + 10*time.Minute).Milliseconds(), *pausedMS)
	require.True(t, pauseStart.Set)
	assert.Nil(t, pauseStart.Value, "marker must clear when the clock stops excluding pauses")
}

func TestExcludePauseToggle_EnableWhilePausedStartsMarker(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	order := &domain.WorkOrder{
		Status:          domain.StatusPaused,
		SLAExcludePause: false,
	}

	pausedMS, pauseStart := ExcludePauseToggle(order, domain.StatusPaused, true, now)
	assert.Nil(t, pausedMS)
	require.True(t, pauseStart.Set)
	require.NotNil(t, pauseStart.Value)
	assert.Equal(t, now, *pauseStart.Value)
}

func TestExcludePauseToggle_NoChangeIsNoop(t *testing.T) {
	start := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	order := &domain.WorkOrder{
		Status:            domain.StatusPaused,
		SLAExcludePause:   true,
		SLAPauseStartedAt: &start,
	}

	pausedMS, pauseStart := ExcludePauseToggle(order, domain.StatusPaused, true, start.Add(time.Hour))
	assert.Nil(t, pausedMS)
	assert.False(t, pauseStart.Set)

	// enabling while running leaves everything alone
	running := &domain.WorkOrder{Status: domain.StatusInExecution, SLAExcludePause: false}
	pausedMS, pauseStart = ExcludePauseToggle(running, domain.StatusInExecution, true, start)
	assert.Nil(t, pausedMS)
	assert.False(t, pauseStart.Set)
}

func TestRemaining_IdleClock(t *testing.T) {
	deadline := time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)
	order := &domain.WorkOrder{
		Status:          domain.StatusInExecution,
		SLAExcludePause: true,
		SLADeadline:     deadline,
	}

	for _, offset := range []time.Duration{-24 * time.Hour, -time.Hour, 0, 30 * time.Minute} {
		now := deadline.Add(offset)
		assert.Equal(t, deadline.Sub(now), Remaining(order, now))
	}
}

func TestRemaining_CreditsAccumulatedPause(t *testing.T) {
	deadline := time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)
	order := &domain.WorkOrder{
		Status:          domain.StatusInExecution,
		SLAExcludePause: true,
		SLADeadline:     deadline,
		SLAPausedMS:     (3 * time.Hour).Milliseconds(),
	}

	now := deadline.Add(-time.Hour)
	assert.Equal(t, 4*time.Hour, Remaining(order, now))
}

func TestRemaining_LivePause(t *testing.T) {
	deadline := time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)
	pauseStart := deadline.Add(-6 * time.Hour)
	order := &domain.WorkOrder{
		Status:            domain.StatusPaused,
		SLAExcludePause:   true,
		SLADeadline:       deadline,
		SLAPauseStartedAt: &pauseStart,
	}

	// while paused the wall clock advances but remaining stays flat: the
	// running pause delta is credited live without being stored
	r1 := Remaining(order, pauseStart.Add(10*time.Minute))
	r2 := Remaining(order, pauseStart.Add(3*time.Hour))
	assert.Equal(t, 6*time.Hour, r1)
	assert.Equal(t, r1, r2)
	assert.Zero(t, order.SLAPausedMS, "live delta is computed, not stored")
}

func TestRemaining_ExcludePauseOff(t *testing.T) {
	deadline := time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)
	pauseStart := deadline.Add(-2 * time.Hour)
	order := &domain.WorkOrder{
		Status:            domain.StatusPaused,
		SLAExcludePause:   false,
		SLADeadline:       deadline,
		SLAPausedMS:       123456,
		SLAPauseStartedAt: &pauseStart,
	}

	now := deadline.Add(-time.Hour)
	assert.Equal(t, time.Hour, Remaining(order, now))
}
