package dto

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/spec-kit/workorder-service/internal/domain"
)

var jsonNull = []byte("null")

// NullableString distinguishes a field absent from the payload from one
// explicitly set to null.
type NullableString struct {
	Set   bool
	Value *string
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *NullableString) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(data, jsonNull) {
		n.Value = nil
		return nil
	}
	return json.Unmarshal(data, &n.Value)
}

// NullableTimestamp carries a raw timestamp string so the service can
// normalize it: absent, explicit null, or an RFC3339 value.
type NullableTimestamp struct {
	Set bool
	Raw *string
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *NullableTimestamp) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(data, jsonNull) {
		n.Raw = nil
		return nil
	}
	return json.Unmarshal(data, &n.Raw)
}

// CreateWorkOrderRequest payload.
type CreateWorkOrderRequest struct {
	PlantID         string     `json:"plant_id"`
	AssetID         string     `json:"asset_id"`
	Title           string     `json:"title"`
	Notes           *string    `json:"notes"`
	Priority        string     `json:"priority"`
	ScheduledAt     *time.Time `json:"scheduled_at"`
	SLADeadline     *time.Time `json:"sla_deadline"`
	SLAExcludePause *bool      `json:"sla_exclude_pause"`
}

// UpdateWorkOrderRequest is the lifecycle PATCH payload.
type UpdateWorkOrderRequest struct {
	Status   *string `json:"status"`
	Priority *string `json:"priority"`

	Notes        NullableString `json:"notes"`
	PauseReason  NullableString `json:"pause_reason"`
	CancelReason NullableString `json:"cancel_reason"`

	ScheduledAt       NullableTimestamp `json:"scheduled_at"`
	AnalysisStartedAt NullableTimestamp `json:"analysis_started_at"`
	StartedAt         NullableTimestamp `json:"started_at"`
	PausedAt          NullableTimestamp `json:"paused_at"`
	CompletedAt       NullableTimestamp `json:"completed_at"`
	ClosedAt          NullableTimestamp `json:"closed_at"`
	CancelledAt       NullableTimestamp `json:"cancelled_at"`

	SLAExcludePause *bool `json:"sla_exclude_pause"`
}

// WorkOrderResponse provides full work-order info.
type WorkOrderResponse struct {
	ID          string  `json:"id"`
	ExternalKey string  `json:"external_key"`
	TenantID    string  `json:"tenant_id"`
	PlantID     string  `json:"plant_id"`
	AssetID     string  `json:"asset_id"`
	Title       string  `json:"title"`
	Notes       *string `json:"notes,omitempty"`

	Status   domain.WorkOrderStatus   `json:"status"`
	Priority domain.WorkOrderPriority `json:"priority"`

	ScheduledAt       *time.Time `json:"scheduled_at,omitempty"`
	AnalysisStartedAt *time.Time `json:"analysis_started_at,omitempty"`
	StartedAt         *time.Time `json:"started_at,omitempty"`
	PausedAt          *time.Time `json:"paused_at,omitempty"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
	ClosedAt          *time.Time `json:"closed_at,omitempty"`
	CancelledAt       *time.Time `json:"cancelled_at,omitempty"`

	SLADeadline       time.Time  `json:"sla_deadline"`
	SLAExcludePause   bool       `json:"sla_exclude_pause"`
	SLAPausedMS       int64      `json:"sla_paused_ms"`
	SLAPauseStartedAt *time.Time `json:"sla_pause_started_at,omitempty"`
	SLARemainingMS    *int64     `json:"sla_remaining_ms,omitempty"`

	PauseReason  *string `json:"pause_reason,omitempty"`
	CancelReason *string `json:"cancel_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WorkOrderHistoryResponse represents one transition audit entry.
type WorkOrderHistoryResponse struct {
	ID         string                 `json:"id"`
	FromStatus domain.WorkOrderStatus `json:"from_status"`
	ToStatus   domain.WorkOrderStatus `json:"to_status"`
	Reason     *string                `json:"reason,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}
