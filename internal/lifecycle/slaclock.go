package lifecycle

import (
	"time"

	"github.com/spec-kit/workorder-service/internal/domain"
)

// priorityHours seeds the SLA deadline at creation time.
var priorityHours = map[domain.WorkOrderPriority]int{
	domain.PriorityLow:      96,
	domain.PriorityMedium:   72,
	domain.PriorityHigh:     24,
	domain.PriorityCritical: 8,
}

// Deadline computes the SLA deadline for a new work order. The base time is
// the scheduled time when provided, otherwise the creation time. An explicit
// override wins over the computed value.
func Deadline(priority domain.WorkOrderPriority, scheduledAt *time.Time, createdAt time.Time, override *time.Time) time.Time {
	if override != nil {
		return *override
	}
	base := createdAt
	if scheduledAt != nil {
		base = *scheduledAt
	}
	hours, ok := priorityHours[priority]
	if !ok {
		hours = priorityHours[domain.PriorityMedium]
	}
	return base.Add(time.Duration(hours) * time.Hour)
}

// PauseAccounting computes the SLA field changes implied by a status change.
// The returned values are merged into the persisted patch by the caller:
// a nil pausedMS leaves the accumulator alone, pauseStart.Set indicates the
// pause marker column changes. Orders with SLAExcludePause off never touch
// either field.
func PauseAccounting(order *domain.WorkOrder, requested domain.WorkOrderStatus, now time.Time) (pausedMS *int64, pauseStart domain.OptTime) {
	if !order.SLAExcludePause || order.Status == requested {
		return nil, domain.OptTime{}
	}

	if requested == domain.StatusPaused {
		if order.SLAPauseStartedAt == nil {
			return nil, domain.SomeTime(now)
		}
		return nil, domain.OptTime{}
	}

	// Any exit from paused flushes the pending delta so paused time is
	// never silently lost, including the escape hatch to cancelled.
	if order.Status == domain.StatusPaused && order.SLAPauseStartedAt != nil {
		delta := now.Sub(*order.SLAPauseStartedAt)
		if delta < 0 {
			delta = 0
		}
		total := order.SLAPausedMS + delta.Milliseconds()
		return &total, domain.NullTime()
	}
	return nil, domain.OptTime{}
}

// ExcludePauseToggle computes the SLA field changes implied by switching
// slaExcludePause. Disabling while the pause marker is set flushes the
// pending delta first, so paused time already measured is never lost and a
// later re-enable cannot count against a stale marker. Enabling while the
// order is (or is becoming) paused starts the marker at now. target is the
// status the order will hold after the same update.
func ExcludePauseToggle(order *domain.WorkOrder, target domain.WorkOrderStatus, enable bool, now time.Time) (pausedMS *int64, pauseStart domain.OptTime) {
	if enable == order.SLAExcludePause {
		return nil, domain.OptTime{}
	}
	if !enable {
		if order.SLAPauseStartedAt != nil {
			delta := now.Sub(*order.SLAPauseStartedAt)
			if delta < 0 {
				delta = 0
			}
			total := order.SLAPausedMS + delta.Milliseconds()
			return &total, domain.NullTime()
		}
		return nil, domain.OptTime{}
	}
	if target == domain.StatusPaused && order.SLAPauseStartedAt == nil {
		return nil, domain.SomeTime(now)
	}
	return nil, domain.OptTime{}
}

// Remaining reports the live effective remaining SLA time at the given
// instant. Accumulated paused time is credited back, and an in-progress pause
// contributes its running delta without being persisted.
func Remaining(order *domain.WorkOrder, now time.Time) time.Duration {
	remaining := order.SLADeadline.Sub(now)
	if !order.SLAExcludePause {
		return remaining
	}
	remaining += time.Duration(order.SLAPausedMS) * time.Millisecond
	if order.Status == domain.StatusPaused && order.SLAPauseStartedAt != nil {
		live := now.Sub(*order.SLAPauseStartedAt)
		if live > 0 {
			remaining += live
		}
	}
	return remaining
}
