package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/workorder-service/internal/api/dto"
	"github.com/spec-kit/workorder-service/internal/auth"
	"github.com/spec-kit/workorder-service/internal/domain"
	"github.com/spec-kit/workorder-service/internal/repository"
	"github.com/spec-kit/workorder-service/internal/service"
	apperrors "github.com/spec-kit/workorder-service/pkg/util/errorutil"
)

// WorkOrdersHandler manages work-order endpoints.
type WorkOrdersHandler struct {
	service *service.WorkOrderService
}

// NewWorkOrdersHandler constructs handler.
func NewWorkOrdersHandler(workOrderService *service.WorkOrderService) *WorkOrdersHandler {
	return &WorkOrdersHandler{service: workOrderService}
}

// CreateWorkOrder POST /work-orders.
func (h *WorkOrdersHandler) CreateWorkOrder(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("tenant scope required")
	}
	var req dto.CreateWorkOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.PlantID == "" || req.AssetID == "" || strings.TrimSpace(req.Title) == "" {
		return apperrors.NewValidationError("plant_id, asset_id, title required", nil)
	}
	if !principal.AllowsPlant(req.PlantID) {
		return apperrors.NewForbidden("plant not in token scope")
	}

	input := service.CreateInput{
		PlantID:         req.PlantID,
		AssetID:         req.AssetID,
		Title:           req.Title,
		Notes:           req.Notes,
		Priority:        req.Priority,
		ScheduledAt:     req.ScheduledAt,
		SLADeadline:     req.SLADeadline,
		SLAExcludePause: req.SLAExcludePause,
	}
	order, err := h.service.CreateWorkOrder(c.Context(), principal.TenantID, input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": workOrderResponse(order, nil)})
}

// UpdateWorkOrder PATCH /work-orders/:id.
func (h *WorkOrdersHandler) UpdateWorkOrder(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("tenant scope required")
	}
	plantID, err := plantScope(c, principal)
	if err != nil {
		return err
	}

	var req dto.UpdateWorkOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.UpdateInput{
		Status:            req.Status,
		Priority:          req.Priority,
		Notes:             toOptString(req.Notes),
		PauseReason:       toOptString(req.PauseReason),
		CancelReason:      toOptString(req.CancelReason),
		ScheduledAt:       toTimestampField(req.ScheduledAt),
		AnalysisStartedAt: toTimestampField(req.AnalysisStartedAt),
		StartedAt:         toTimestampField(req.StartedAt),
		PausedAt:          toTimestampField(req.PausedAt),
		CompletedAt:       toTimestampField(req.CompletedAt),
		ClosedAt:          toTimestampField(req.ClosedAt),
		CancelledAt:       toTimestampField(req.CancelledAt),
		SLAExcludePause:   req.SLAExcludePause,
	}

	order, err := h.service.ApplyUpdate(c.Context(), principal.TenantID, c.Params("id"), input, plantID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": workOrderResponse(order, h.remainingIfRequested(c, order))})
}

// GetWorkOrder GET /work-orders/:id.
func (h *WorkOrdersHandler) GetWorkOrder(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("tenant scope required")
	}
	plantID, err := plantScope(c, principal)
	if err != nil {
		return err
	}

	order, err := h.service.GetWorkOrder(c.Context(), principal.TenantID, c.Params("id"), plantID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": workOrderResponse(order, h.remainingIfRequested(c, order))})
}

// ListWorkOrders GET /work-orders.
func (h *WorkOrdersHandler) ListWorkOrders(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("tenant scope required")
	}
	plantID, err := plantScope(c, principal)
	if err != nil {
		return err
	}

	filter := parseWorkOrderQuery(c)
	filter.TenantID = principal.TenantID
	filter.PlantID = plantID

	orders, err := h.service.ListWorkOrders(c.Context(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.WorkOrderResponse, 0, len(orders))
	for i := range orders {
		items = append(items, workOrderResponse(&orders[i], nil))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListHistory GET /work-orders/:id/history.
func (h *WorkOrdersHandler) ListHistory(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("tenant scope required")
	}
	plantID, err := plantScope(c, principal)
	if err != nil {
		return err
	}

	// existence (and plant scope) check before listing
	if _, err := h.service.GetWorkOrder(c.Context(), principal.TenantID, c.Params("id"), plantID); err != nil {
		return err
	}

	limit := parseInt(c.Query("page_size"), 50)
	page := parseInt(c.Query("page"), 1)
	entries, err := h.service.ListHistory(c.Context(), principal.TenantID, c.Params("id"), limit, (page-1)*limit)
	if err != nil {
		return err
	}
	items := make([]dto.WorkOrderHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.WorkOrderHistoryResponse{
			ID:         entry.ID,
			FromStatus: entry.FromStatus,
			ToStatus:   entry.ToStatus,
			Reason:     entry.Reason,
			CreatedAt:  entry.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

func (h *WorkOrdersHandler) remainingIfRequested(c *fiber.Ctx, order *domain.WorkOrder) *int64 {
	if c.Query("remaining") != "true" {
		return nil
	}
	ms := h.service.Remaining(order).Milliseconds()
	return &ms
}

func plantScope(c *fiber.Ctx, principal *auth.Principal) (*string, error) {
	plant := c.Query("plant_id")
	if plant == "" {
		return nil, nil
	}
	if !principal.AllowsPlant(plant) {
		return nil, apperrors.NewForbidden("plant not in token scope")
	}
	return &plant, nil
}

func parseWorkOrderQuery(c *fiber.Ctx) repository.WorkOrderFilter {
	filter := repository.WorkOrderFilter{}
	if assetID := c.Query("asset_id"); assetID != "" {
		filter.AssetID = &assetID
	}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			if status, err := domain.ParseStatus(part); err == nil {
				filter.Statuses = append(filter.Statuses, status)
			}
		}
	}
	if priorityStr := c.Query("priority"); priorityStr != "" {
		for _, part := range strings.Split(priorityStr, ",") {
			if priority, err := domain.ParsePriority(part); err == nil {
				filter.Priorities = append(filter.Priorities, priority)
			}
		}
	}
	if from := parseTime(c.Query("created_from")); from != nil {
		filter.CreatedFrom = from
	}
	if to := parseTime(c.Query("created_to")); to != nil {
		filter.CreatedTo = to
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func toOptString(n dto.NullableString) domain.OptString {
	return domain.OptString{Set: n.Set, Value: n.Value}
}

func toTimestampField(n dto.NullableTimestamp) service.TimestampField {
	return service.TimestampField{Set: n.Set, Raw: n.Raw}
}

func workOrderResponse(order *domain.WorkOrder, remainingMS *int64) dto.WorkOrderResponse {
	return dto.WorkOrderResponse{
		ID:                order.ID,
		ExternalKey:       order.ExternalKey,
		TenantID:          order.TenantID,
		PlantID:           order.PlantID,
		AssetID:           order.AssetID,
		Title:             order.Title,
		Notes:             order.Notes,
		Status:            order.Status,
		Priority:          order.Priority,
		ScheduledAt:       order.ScheduledAt,
		AnalysisStartedAt: order.AnalysisStartedAt,
		StartedAt:         order.StartedAt,
		PausedAt:          order.PausedAt,
		CompletedAt:       order.CompletedAt,
		ClosedAt:          order.ClosedAt,
		CancelledAt:       order.CancelledAt,
		SLADeadline:       order.SLADeadline,
		SLAExcludePause:   order.SLAExcludePause,
		SLAPausedMS:       order.SLAPausedMS,
		SLAPauseStartedAt: order.SLAPauseStartedAt,
		SLARemainingMS:    remainingMS,
		PauseReason:       order.PauseReason,
		CancelReason:      order.CancelReason,
		CreatedAt:         order.CreatedAt,
		UpdatedAt:         order.UpdatedAt,
	}
}
