package domain

import "time"

// WorkOrderHistory records one applied status transition for auditing.
type WorkOrderHistory struct {
	ID          string
	WorkOrderID string
	TenantID    string
	FromStatus  WorkOrderStatus
	ToStatus    WorkOrderStatus
	Reason      *string
	CreatedAt   time.Time
}
