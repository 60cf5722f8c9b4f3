package domain

import "time"

// WorkOrder is the aggregate for maintenance orders in a plant.
type WorkOrder struct {
	ID          string
	ExternalKey string
	TenantID    string
	PlantID     string
	AssetID     string
	Title       string
	Notes       *string

	Status   WorkOrderStatus
	Priority WorkOrderPriority

	// Lifecycle timestamps. Each is set when its transition occurs and
	// cleared when the order re-enters an earlier phase.
	ScheduledAt       *time.Time
	AnalysisStartedAt *time.Time
	StartedAt         *time.Time
	PausedAt          *time.Time
	CompletedAt       *time.Time
	ClosedAt          *time.Time
	CancelledAt       *time.Time

	// SLA clock state. SLAPausedMS only ever grows; SLAPauseStartedAt is
	// non-nil exactly while the order is paused with SLAExcludePause on.
	SLADeadline       time.Time
	SLAExcludePause   bool
	SLAPausedMS       int64
	SLAPauseStartedAt *time.Time

	PauseReason  *string
	CancelReason *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// OptString distinguishes "absent from patch" from "explicitly set to null".
type OptString struct {
	Set   bool
	Value *string
}

// OptTime distinguishes "absent from patch" from "explicitly set to null".
type OptTime struct {
	Set   bool
	Value *time.Time
}

// SomeTime wraps a concrete timestamp as a present OptTime.
func SomeTime(t time.Time) OptTime {
	return OptTime{Set: true, Value: &t}
}

// NullTime is an OptTime that clears the column.
func NullTime() OptTime {
	return OptTime{Set: true}
}

// WorkOrderPatch is the merged field set persisted by a single atomic write.
// Nil/unset members leave the stored column untouched.
type WorkOrderPatch struct {
	Status *WorkOrderStatus

	Notes        OptString
	PauseReason  OptString
	CancelReason OptString

	ScheduledAt       OptTime
	AnalysisStartedAt OptTime
	StartedAt         OptTime
	PausedAt          OptTime
	CompletedAt       OptTime
	ClosedAt          OptTime
	CancelledAt       OptTime

	SLAExcludePause   *bool
	SLAPausedMS       *int64
	SLAPauseStartedAt OptTime
}

// IsEmpty reports whether the patch carries no column changes.
func (p WorkOrderPatch) IsEmpty() bool {
	return p.Status == nil &&
		!p.Notes.Set && !p.PauseReason.Set && !p.CancelReason.Set &&
		!p.ScheduledAt.Set && !p.AnalysisStartedAt.Set && !p.StartedAt.Set &&
		!p.PausedAt.Set && !p.CompletedAt.Set && !p.ClosedAt.Set && !p.CancelledAt.Set &&
		p.SLAExcludePause == nil && p.SLAPausedMS == nil && !p.SLAPauseStartedAt.Set
}
