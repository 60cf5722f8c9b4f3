package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/workorder-service/internal/domain"
	"github.com/spec-kit/workorder-service/internal/events"
)

type capturingDispatcher struct {
	published []events.Event
}

func (d *capturingDispatcher) Publish(ctx context.Context, event events.Event) error {
	d.published = append(d.published, event)
	return nil
}

func (d *capturingDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {}

func TestEventNotifier_CreatedCarriesOrderPayload(t *testing.T) {
	dispatcher := &capturingDispatcher{}
	notifier := NewEventNotifier(dispatcher)
	deadline := time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC)

	err := notifier.Publish(context.Background(), Notification{
		TenantID:    "tenant-1",
		PlantID:     "plant-1",
		WorkOrderID: "wo-1",
		AssetID:     "asset-1",
		Title:       "replace bearing on conveyor 3",
		Priority:    domain.PriorityHigh,
		SLADeadline: deadline,
		Kind:        NotificationCreated,
	})
	require.NoError(t, err)
	require.Len(t, dispatcher.published, 1)

	event := dispatcher.published[0]
	assert.Equal(t, events.EventWorkOrderCreated, event.Type)
	assert.Equal(t, "wo-1", event.WorkOrderID)

	payload, ok := event.Payload.(events.WorkOrderCreatedPayload)
	require.True(t, ok, "created events carry a typed payload")
	assert.Equal(t, "asset-1", payload.AssetID)
	assert.Equal(t, "replace bearing on conveyor 3", payload.Title)
	assert.Equal(t, domain.PriorityHigh, payload.Priority)
	assert.Equal(t, deadline, payload.SLADeadline)
}

func TestEventNotifier_StatusChangedCarriesReason(t *testing.T) {
	dispatcher := &capturingDispatcher{}
	notifier := NewEventNotifier(dispatcher)

	from := domain.StatusInExecution
	to := domain.StatusPaused
	reason := "waiting on parts"
	err := notifier.Publish(context.Background(), Notification{
		TenantID:    "tenant-1",
		WorkOrderID: "wo-1",
		Kind:        NotificationStatusChanged,
		FromStatus:  &from,
		ToStatus:    &to,
		Reason:      &reason,
	})
	require.NoError(t, err)
	require.Len(t, dispatcher.published, 1)

	payload, ok := dispatcher.published[0].Payload.(events.WorkOrderStatusChangedPayload)
	require.True(t, ok)
	assert.Equal(t, domain.StatusInExecution, payload.FromStatus)
	assert.Equal(t, domain.StatusPaused, payload.ToStatus)
	assert.Equal(t, reason, payload.Reason)
}

func TestEventNotifier_UpdatedMapsToUpdatedEvent(t *testing.T) {
	dispatcher := &capturingDispatcher{}
	notifier := NewEventNotifier(dispatcher)

	err := notifier.Publish(context.Background(), Notification{
		TenantID:    "tenant-1",
		WorkOrderID: "wo-1",
		Kind:        NotificationUpdated,
	})
	require.NoError(t, err)
	require.Len(t, dispatcher.published, 1)
	assert.Equal(t, events.EventWorkOrderUpdated, dispatcher.published[0].Type)
}

func TestEventNotifier_NilDispatcherIsNoop(t *testing.T) {
	notifier := NewEventNotifier(nil)
	assert.NoError(t, notifier.Publish(context.Background(), Notification{Kind: NotificationCreated}))
}
