package events

import (
	"time"

	"github.com/spec-kit/workorder-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventWorkOrderCreated       EventType = "work_order_created"
	EventWorkOrderStatusChanged EventType = "work_order_status_changed"
	EventWorkOrderUpdated       EventType = "work_order_updated"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID          string      `json:"id"`
	Type        EventType   `json:"type"`
	TenantID    string      `json:"tenant_id"`
	PlantID     string      `json:"plant_id"`
	WorkOrderID string      `json:"work_order_id"`
	Timestamp   time.Time   `json:"timestamp"`
	Payload     interface{} `json:"payload"`
}

// WorkOrderCreatedPayload payload.
type WorkOrderCreatedPayload struct {
	AssetID     string                   `json:"asset_id"`
	Title       string                   `json:"title"`
	Priority    domain.WorkOrderPriority `json:"priority"`
	SLADeadline time.Time                `json:"sla_deadline"`
}

// WorkOrderStatusChangedPayload payload.
type WorkOrderStatusChangedPayload struct {
	FromStatus domain.WorkOrderStatus `json:"from_status"`
	ToStatus   domain.WorkOrderStatus `json:"to_status"`
	Reason     string                 `json:"reason,omitempty"`
}
