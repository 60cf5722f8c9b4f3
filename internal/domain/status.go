package domain

import (
	"fmt"
	"strings"
)

// WorkOrderStatus enumerates lifecycle states for maintenance work orders.
type WorkOrderStatus string

const (
	StatusOpen        WorkOrderStatus = "open"
	StatusInAnalysis  WorkOrderStatus = "in_analysis"
	StatusInExecution WorkOrderStatus = "in_execution"
	StatusPaused      WorkOrderStatus = "paused"
	StatusCompleted   WorkOrderStatus = "completed"
	StatusClosed      WorkOrderStatus = "closed"
	StatusCancelled   WorkOrderStatus = "cancelled"
)

// legacyStatusAliases maps status values still produced by older clients onto
// the canonical set. Normalization happens once at the ingestion boundary so
// the state machine never sees an alias.
var legacyStatusAliases = map[string]WorkOrderStatus{
	"approved":    StatusInAnalysis,
	"scheduled":   StatusInAnalysis,
	"assigned":    StatusInAnalysis,
	"in_progress": StatusInExecution,
}

var canonicalStatuses = map[WorkOrderStatus]struct{}{
	StatusOpen:        {},
	StatusInAnalysis:  {},
	StatusInExecution: {},
	StatusPaused:      {},
	StatusCompleted:   {},
	StatusClosed:      {},
	StatusCancelled:   {},
}

// ParseStatus normalizes a raw status string (including legacy aliases) to a
// canonical WorkOrderStatus.
func ParseStatus(raw string) (WorkOrderStatus, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if alias, ok := legacyStatusAliases[value]; ok {
		return alias, nil
	}
	status := WorkOrderStatus(value)
	if _, ok := canonicalStatuses[status]; !ok {
		return "", fmt.Errorf("unknown status %q", raw)
	}
	return status, nil
}

// IsTerminal reports whether no further status mutation is permitted.
func (s WorkOrderStatus) IsTerminal() bool {
	return s == StatusClosed || s == StatusCancelled
}

// WorkOrderPriority enumerates SLA urgency. Fixed at creation.
type WorkOrderPriority string

const (
	PriorityLow      WorkOrderPriority = "low"
	PriorityMedium   WorkOrderPriority = "medium"
	PriorityHigh     WorkOrderPriority = "high"
	PriorityCritical WorkOrderPriority = "critical"
)

// ParsePriority validates a raw priority string.
func ParsePriority(raw string) (WorkOrderPriority, error) {
	switch p := WorkOrderPriority(strings.ToLower(strings.TrimSpace(raw))); p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return p, nil
	default:
		return "", fmt.Errorf("unknown priority %q", raw)
	}
}
