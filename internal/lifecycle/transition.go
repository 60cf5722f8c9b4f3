package lifecycle

import (
	"fmt"

	"github.com/spec-kit/workorder-service/internal/domain"
)

// TransitionError describes why a requested status change was rejected.
type TransitionError struct {
	From   domain.WorkOrderStatus
	To     domain.WorkOrderStatus
	Reason string
}

func (e *TransitionError) Error() string {
	return e.Reason
}

// forwardTransitions is the strict forward-only adjacency table. Pausing,
// resuming, cancellation and the terminal lock are handled as explicit rules
// before this table is consulted, so it only carries the happy path.
var forwardTransitions = map[domain.WorkOrderStatus][]domain.WorkOrderStatus{
	domain.StatusOpen:        {domain.StatusInAnalysis},
	domain.StatusInAnalysis:  {domain.StatusInExecution},
	domain.StatusInExecution: {domain.StatusCompleted, domain.StatusPaused},
	domain.StatusCompleted:   {domain.StatusClosed},
}

// ValidateTransition decides whether a work order may move from current to
// requested. A no-op (current == requested) always succeeds. The returned
// error, when non-nil, is a *TransitionError whose Reason is the user-facing
// rejection message.
func ValidateTransition(current, requested domain.WorkOrderStatus) error {
	if current == requested {
		return nil
	}
	if current.IsTerminal() {
		return &TransitionError{From: current, To: requested, Reason: "order already finalized"}
	}
	if requested == domain.StatusCancelled {
		return nil
	}
	if requested == domain.StatusPaused && current != domain.StatusInExecution {
		return &TransitionError{From: current, To: requested, Reason: "can only pause an order in execution"}
	}
	if current == domain.StatusPaused {
		if requested == domain.StatusInExecution {
			return nil
		}
		return &TransitionError{From: current, To: requested, Reason: "a paused order can only resume to in_execution"}
	}
	for _, candidate := range forwardTransitions[current] {
		if candidate == requested {
			return nil
		}
	}
	return &TransitionError{
		From:   current,
		To:     requested,
		Reason: fmt.Sprintf("invalid transition: %s → %s", current, requested),
	}
}
