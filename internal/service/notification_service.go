package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/workorder-service/internal/config"
	"github.com/spec-kit/workorder-service/internal/events"
)

// EventNotifier adapts the in-memory event dispatcher to the lifecycle
// service's NotificationDispatcher contract.
type EventNotifier struct {
	dispatcher events.Dispatcher
}

// NewEventNotifier constructs the adapter.
func NewEventNotifier(dispatcher events.Dispatcher) *EventNotifier {
	return &EventNotifier{dispatcher: dispatcher}
}

// Publish translates a lifecycle notification into a domain event.
func (n *EventNotifier) Publish(ctx context.Context, notification Notification) error {
	if n.dispatcher == nil {
		return nil
	}
	event := events.Event{
		ID:          uuid.NewString(),
		TenantID:    notification.TenantID,
		PlantID:     notification.PlantID,
		WorkOrderID: notification.WorkOrderID,
		Timestamp:   time.Now(),
	}
	switch notification.Kind {
	case NotificationCreated:
		event.Type = events.EventWorkOrderCreated
		event.Payload = events.WorkOrderCreatedPayload{
			AssetID:     notification.AssetID,
			Title:       notification.Title,
			Priority:    notification.Priority,
			SLADeadline: notification.SLADeadline,
		}
	case NotificationStatusChanged:
		event.Type = events.EventWorkOrderStatusChanged
		payload := events.WorkOrderStatusChangedPayload{}
		if notification.FromStatus != nil {
			payload.FromStatus = *notification.FromStatus
		}
		if notification.ToStatus != nil {
			payload.ToStatus = *notification.ToStatus
		}
		if notification.Reason != nil {
			payload.Reason = *notification.Reason
		}
		event.Payload = payload
	default:
		event.Type = events.EventWorkOrderUpdated
	}
	return n.dispatcher.Publish(ctx, event)
}

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventWorkOrderCreated, n.handleWorkOrderCreated)
	n.dispatcher.Subscribe(events.EventWorkOrderStatusChanged, n.handleWorkOrderStatusChanged)
	n.dispatcher.Subscribe(events.EventWorkOrderUpdated, n.handleWorkOrderUpdated)
}

func (n *NotificationService) handleWorkOrderCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("WorkOrderCreated", zap.String("work_order_id", event.WorkOrderID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleWorkOrderStatusChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("WorkOrderStatusChanged", zap.String("work_order_id", event.WorkOrderID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleWorkOrderUpdated(ctx context.Context, event events.Event) error {
	n.logger.Debug("WorkOrderUpdated", zap.String("work_order_id", event.WorkOrderID))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("work_order_id", event.WorkOrderID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("work_order_id", event.WorkOrderID),
		zap.String("event_type", string(event.Type)))
}
