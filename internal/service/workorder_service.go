package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/workorder-service/internal/domain"
	"github.com/spec-kit/workorder-service/internal/lifecycle"
	"github.com/spec-kit/workorder-service/internal/observability"
	"github.com/spec-kit/workorder-service/internal/repository"
	"github.com/spec-kit/workorder-service/internal/search"
	apperrors "github.com/spec-kit/workorder-service/pkg/util/errorutil"
)

// CacheInvalidator drops cached entries for a work order scope. Best effort.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, tenantID, plantID, workOrderID string) error
}

// SearchIndexer upserts the searchable summary document. Best effort.
type SearchIndexer interface {
	Index(ctx context.Context, doc search.Document) error
}

// NotificationKind enumerates lifecycle notification kinds.
type NotificationKind string

const (
	NotificationCreated       NotificationKind = "created"
	NotificationStatusChanged NotificationKind = "status_changed"
	NotificationUpdated       NotificationKind = "updated"
)

// Notification is the event handed to the external notification channel.
// The order-derived fields are filled in by the service before fan-out.
type Notification struct {
	TenantID    string
	PlantID     string
	WorkOrderID string
	AssetID     string
	Title       string
	Priority    domain.WorkOrderPriority
	SLADeadline time.Time
	Kind        NotificationKind
	FromStatus  *domain.WorkOrderStatus
	ToStatus    *domain.WorkOrderStatus
	Reason      *string
}

// NotificationDispatcher publishes lifecycle notifications. Best effort.
type NotificationDispatcher interface {
	Publish(ctx context.Context, notification Notification) error
}

// WorkOrderService orchestrates the work-order lifecycle: load, validate,
// mutate SLA fields, persist atomically, then fan out to collaborators.
type WorkOrderService struct {
	orders   repository.WorkOrderRepository
	cache    CacheInvalidator
	indexer  SearchIndexer
	notifier NotificationDispatcher
	logger   *zap.Logger
	now      func() time.Time
}

// WorkOrderDependencies bundles collaborators for the lifecycle service.
type WorkOrderDependencies struct {
	Orders   repository.WorkOrderRepository
	Cache    CacheInvalidator
	Indexer  SearchIndexer
	Notifier NotificationDispatcher
	Logger   *zap.Logger

	// Now overrides the clock source; nil means time.Now.
	Now func() time.Time
}

// NewWorkOrderService constructs the service.
func NewWorkOrderService(deps WorkOrderDependencies) *WorkOrderService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkOrderService{
		orders:   deps.Orders,
		cache:    deps.Cache,
		indexer:  deps.Indexer,
		notifier: deps.Notifier,
		logger:   logger,
		now:      now,
	}
}

// CreateInput describes work-order creation payload.
type CreateInput struct {
	PlantID         string
	AssetID         string
	Title           string
	Notes           *string
	Priority        string
	ScheduledAt     *time.Time
	SLADeadline     *time.Time
	SLAExcludePause *bool
}

// CreateWorkOrder creates a new order in status open with its SLA deadline
// seeded from priority and schedule.
func (s *WorkOrderService) CreateWorkOrder(ctx context.Context, tenantID string, input CreateInput) (*domain.WorkOrder, error) {
	if tenantID == "" || input.PlantID == "" || input.AssetID == "" || strings.TrimSpace(input.Title) == "" {
		return nil, apperrors.NewValidationError("plant_id, asset_id, title required", nil)
	}

	priority := domain.PriorityMedium
	if input.Priority != "" {
		parsed, err := domain.ParsePriority(input.Priority)
		if err != nil {
			return nil, apperrors.NewValidationError(err.Error(), nil)
		}
		priority = parsed
	}

	excludePause := true
	if input.SLAExcludePause != nil {
		excludePause = *input.SLAExcludePause
	}

	now := s.now()
	order := &domain.WorkOrder{
		ExternalKey:     generateOrderKey(),
		TenantID:        tenantID,
		PlantID:         input.PlantID,
		AssetID:         input.AssetID,
		Title:           strings.TrimSpace(input.Title),
		Notes:           input.Notes,
		Status:          domain.StatusOpen,
		Priority:        priority,
		ScheduledAt:     input.ScheduledAt,
		SLADeadline:     lifecycle.Deadline(priority, input.ScheduledAt, now, input.SLADeadline),
		SLAExcludePause: excludePause,
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, apperrors.MapError(err)
	}
	observability.OrdersCreated.Inc()

	s.afterWrite(ctx, order, Notification{Kind: NotificationCreated})
	return order, nil
}

// TimestampField carries a raw timestamp patch value from the edge: absent,
// explicit null, or an RFC3339 string still to be parsed.
type TimestampField struct {
	Set bool
	Raw *string
}

// UpdateInput is the raw lifecycle patch before normalization.
type UpdateInput struct {
	Status   *string
	Priority *string // immutable after creation; ignored when present

	Notes        domain.OptString
	PauseReason  domain.OptString
	CancelReason domain.OptString

	ScheduledAt       TimestampField
	AnalysisStartedAt TimestampField
	StartedAt         TimestampField
	PausedAt          TimestampField
	CompletedAt       TimestampField
	ClosedAt          TimestampField
	CancelledAt       TimestampField

	SLAExcludePause *bool
}

// ApplyUpdate runs one lifecycle mutation: loads the order under a row lock,
// validates any status change, applies the SLA pause accounting, persists the
// merged patch atomically and fans out best-effort side effects.
func (s *WorkOrderService) ApplyUpdate(ctx context.Context, tenantID, workOrderID string, input UpdateInput, plantID *string) (*domain.WorkOrder, error) {
	patch, requested, err := s.buildPatch(input)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var updated *domain.WorkOrder
	var transitioned bool
	var fromStatus domain.WorkOrderStatus

	err = s.orders.InTransaction(ctx, func(ctx context.Context, tx repository.WorkOrderTx) error {
		current, err := tx.LoadForUpdate(ctx, tenantID, workOrderID, plantID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("work order", map[string]any{"work_order_id": workOrderID})
			}
			return apperrors.MapError(err)
		}

		if requested != nil && *requested != current.Status {
			if err := lifecycle.ValidateTransition(current.Status, *requested); err != nil {
				observability.TransitionsRejected.Inc()
				return apperrors.NewInvalidTransition(err.Error(), map[string]any{
					"from": current.Status,
					"to":   *requested,
				})
			}

			pausedMS, pauseStart := lifecycle.PauseAccounting(current, *requested, now)
			if pausedMS != nil {
				patch.SLAPausedMS = pausedMS
			}
			if pauseStart.Set {
				patch.SLAPauseStartedAt = pauseStart
			}
			stampLifecycleTimestamps(current, *requested, now, &patch)

			transitioned = true
			fromStatus = current.Status
		}

		if patch.SLAExcludePause != nil {
			target := current.Status
			if requested != nil {
				target = *requested
			}
			pausedMS, pauseStart := lifecycle.ExcludePauseToggle(current, target, *patch.SLAExcludePause, now)
			if pausedMS != nil && patch.SLAPausedMS == nil {
				patch.SLAPausedMS = pausedMS
			}
			if pauseStart.Set && !patch.SLAPauseStartedAt.Set {
				patch.SLAPauseStartedAt = pauseStart
			}
		}

		updated, err = tx.ApplyPatch(ctx, tenantID, workOrderID, patch, plantID)
		if err != nil {
			return apperrors.MapError(err)
		}

		if transitioned {
			entry := &domain.WorkOrderHistory{
				WorkOrderID: updated.ID,
				TenantID:    updated.TenantID,
				FromStatus:  fromStatus,
				ToStatus:    updated.Status,
				Reason:      transitionReason(updated),
			}
			if err := tx.AppendHistory(ctx, entry); err != nil {
				return apperrors.MapError(err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	notification := Notification{Kind: NotificationUpdated}
	if transitioned {
		observability.TransitionsApplied.Inc()
		to := updated.Status
		notification.Kind = NotificationStatusChanged
		notification.FromStatus = &fromStatus
		notification.ToStatus = &to
		notification.Reason = transitionReason(updated)
		s.logger.Info("work order transitioned",
			zap.String("work_order_id", updated.ID),
			zap.String("from", string(fromStatus)),
			zap.String("to", string(updated.Status)))
	}
	s.afterWrite(ctx, updated, notification)
	return updated, nil
}

// GetWorkOrder fetches one order scoped by tenant (and plant when given).
func (s *WorkOrderService) GetWorkOrder(ctx context.Context, tenantID, workOrderID string, plantID *string) (*domain.WorkOrder, error) {
	order, err := s.orders.GetByID(ctx, tenantID, workOrderID, plantID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("work order", map[string]any{"work_order_id": workOrderID})
		}
		return nil, apperrors.MapError(err)
	}
	return order, nil
}

// ListWorkOrders returns orders matching the filter.
func (s *WorkOrderService) ListWorkOrders(ctx context.Context, filter repository.WorkOrderFilter) ([]domain.WorkOrder, error) {
	orders, err := s.orders.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return orders, nil
}

// ListHistory returns the transition audit trail for one order.
func (s *WorkOrderService) ListHistory(ctx context.Context, tenantID, workOrderID string, limit, offset int) ([]domain.WorkOrderHistory, error) {
	entries, err := s.orders.ListHistory(ctx, tenantID, workOrderID, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

// Remaining reports the live effective remaining SLA time for an order.
func (s *WorkOrderService) Remaining(order *domain.WorkOrder) time.Duration {
	return lifecycle.Remaining(order, s.now())
}

// buildPatch normalizes the raw input into a persistable patch. Timestamp
// fields are parsed to a concrete time or an explicit null before anything
// touches the database; unknown statuses and unparseable timestamps are
// validation errors. Priority is immutable and dropped here.
func (s *WorkOrderService) buildPatch(input UpdateInput) (domain.WorkOrderPatch, *domain.WorkOrderStatus, error) {
	patch := domain.WorkOrderPatch{
		Notes:           input.Notes,
		PauseReason:     input.PauseReason,
		CancelReason:    input.CancelReason,
		SLAExcludePause: input.SLAExcludePause,
	}

	var requested *domain.WorkOrderStatus
	if input.Status != nil {
		status, err := domain.ParseStatus(*input.Status)
		if err != nil {
			return domain.WorkOrderPatch{}, nil, apperrors.NewValidationError(err.Error(), nil)
		}
		requested = &status
		patch.Status = &status
	}

	if input.Priority != nil {
		s.logger.Debug("ignoring priority change on lifecycle update", zap.String("priority", *input.Priority))
	}

	fields := []struct {
		name string
		in   TimestampField
		out  *domain.OptTime
	}{
		{"scheduled_at", input.ScheduledAt, &patch.ScheduledAt},
		{"analysis_started_at", input.AnalysisStartedAt, &patch.AnalysisStartedAt},
		{"started_at", input.StartedAt, &patch.StartedAt},
		{"paused_at", input.PausedAt, &patch.PausedAt},
		{"completed_at", input.CompletedAt, &patch.CompletedAt},
		{"closed_at", input.ClosedAt, &patch.ClosedAt},
		{"cancelled_at", input.CancelledAt, &patch.CancelledAt},
	}
	for _, f := range fields {
		if !f.in.Set {
			continue
		}
		normalized, err := normalizeTimestamp(f.name, f.in.Raw)
		if err != nil {
			return domain.WorkOrderPatch{}, nil, err
		}
		*f.out = normalized
	}

	return patch, requested, nil
}

func normalizeTimestamp(field string, raw *string) (domain.OptTime, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return domain.NullTime(), nil
	}
	parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(*raw))
	if err != nil {
		return domain.OptTime{}, apperrors.NewValidationError(
			fmt.Sprintf("invalid timestamp for %s", field),
			map[string]any{"value": *raw},
		)
	}
	return domain.SomeTime(parsed), nil
}

// stampLifecycleTimestamps fills in the timestamp implied by a transition
// when the caller did not supply one, and clears markers when the order
// re-enters an earlier phase.
func stampLifecycleTimestamps(current *domain.WorkOrder, requested domain.WorkOrderStatus, now time.Time, patch *domain.WorkOrderPatch) {
	switch requested {
	case domain.StatusInAnalysis:
		if !patch.AnalysisStartedAt.Set && current.AnalysisStartedAt == nil {
			patch.AnalysisStartedAt = domain.SomeTime(now)
		}
	case domain.StatusInExecution:
		if !patch.StartedAt.Set && current.StartedAt == nil {
			patch.StartedAt = domain.SomeTime(now)
		}
		// resuming clears the pause marker
		if current.Status == domain.StatusPaused && !patch.PausedAt.Set {
			patch.PausedAt = domain.NullTime()
		}
	case domain.StatusPaused:
		if !patch.PausedAt.Set {
			patch.PausedAt = domain.SomeTime(now)
		}
	case domain.StatusCompleted:
		if !patch.CompletedAt.Set && current.CompletedAt == nil {
			patch.CompletedAt = domain.SomeTime(now)
		}
	case domain.StatusClosed:
		if !patch.ClosedAt.Set && current.ClosedAt == nil {
			patch.ClosedAt = domain.SomeTime(now)
		}
	case domain.StatusCancelled:
		if !patch.CancelledAt.Set && current.CancelledAt == nil {
			patch.CancelledAt = domain.SomeTime(now)
		}
	}
}

func transitionReason(order *domain.WorkOrder) *string {
	switch order.Status {
	case domain.StatusPaused:
		return order.PauseReason
	case domain.StatusCancelled:
		return order.CancelReason
	default:
		return nil
	}
}

// afterWrite fires the best-effort collaborator calls. Each runs detached
// from the request, failures are counted and logged but never reach the
// caller, and one failing never stops the others.
func (s *WorkOrderService) afterWrite(ctx context.Context, order *domain.WorkOrder, notification Notification) {
	background := context.WithoutCancel(ctx)

	notification.TenantID = order.TenantID
	notification.PlantID = order.PlantID
	notification.WorkOrderID = order.ID
	notification.AssetID = order.AssetID
	notification.Title = order.Title
	notification.Priority = order.Priority
	notification.SLADeadline = order.SLADeadline

	if s.cache != nil {
		s.fireAndForget(background, "cache_invalidate", func(ctx context.Context) error {
			return s.cache.Invalidate(ctx, order.TenantID, order.PlantID, order.ID)
		})
	}
	if s.indexer != nil {
		doc := search.Document{
			ID:          order.ID,
			TenantID:    order.TenantID,
			PlantID:     order.PlantID,
			AssetID:     order.AssetID,
			Title:       order.Title,
			Status:      string(order.Status),
			Priority:    string(order.Priority),
			SLADeadline: order.SLADeadline,
			UpdatedAt:   order.UpdatedAt,
		}
		s.fireAndForget(background, "search_index", func(ctx context.Context) error {
			return s.indexer.Index(ctx, doc)
		})
	}
	if s.notifier != nil {
		s.fireAndForget(background, "notification_dispatch", func(ctx context.Context) error {
			return s.notifier.Publish(ctx, notification)
		})
	}
}

func (s *WorkOrderService) fireAndForget(ctx context.Context, name string, fn func(context.Context) error) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				observability.CollaboratorFailures.Inc()
				s.logger.Warn("collaborator panicked", zap.String("collaborator", name), zap.Any("panic", r))
			}
		}()
		if err := fn(ctx); err != nil {
			observability.CollaboratorFailures.Inc()
			s.logger.Warn("collaborator call failed", zap.String("collaborator", name), zap.Error(err))
		}
	}()
}

func generateOrderKey() string {
	return "WO-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
