package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/workorder-service/internal/domain"
)

// WorkOrderFilter captures listing parameters. All filters are combined with
// AND; TenantID is mandatory.
type WorkOrderFilter struct {
	TenantID    string
	PlantID     *string
	AssetID     *string
	Statuses    []domain.WorkOrderStatus
	Priorities  []domain.WorkOrderPriority
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// WorkOrderTx exposes the operations available inside one row-locked
// transaction. LoadForUpdate holds the lock until the transaction commits, so
// concurrent lifecycle updates on the same order serialize instead of racing
// the pause accounting.
type WorkOrderTx interface {
	LoadForUpdate(ctx context.Context, tenantID, id string, plantID *string) (*domain.WorkOrder, error)
	ApplyPatch(ctx context.Context, tenantID, id string, patch domain.WorkOrderPatch, plantID *string) (*domain.WorkOrder, error)
	AppendHistory(ctx context.Context, entry *domain.WorkOrderHistory) error
}

// WorkOrderRepository encapsulates work-order persistence.
type WorkOrderRepository interface {
	Create(ctx context.Context, order *domain.WorkOrder) error
	GetByID(ctx context.Context, tenantID, id string, plantID *string) (*domain.WorkOrder, error)
	ListWithFilter(ctx context.Context, filter WorkOrderFilter) ([]domain.WorkOrder, error)
	ListHistory(ctx context.Context, tenantID, workOrderID string, limit, offset int) ([]domain.WorkOrderHistory, error)
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx WorkOrderTx) error) error
}

const workOrderColumns = `id, external_key, tenant_id, plant_id, asset_id, title, notes,
               status, priority,
               scheduled_at, analysis_started_at, started_at, paused_at, completed_at, closed_at, cancelled_at,
               sla_deadline, sla_exclude_pause, sla_paused_ms, sla_pause_started_at,
               pause_reason, cancel_reason, created_at, updated_at`

type workOrderRepository struct {
	pool *pgxpool.Pool
}

// NewWorkOrderRepository instantiates repository.
func NewWorkOrderRepository(pool *pgxpool.Pool) WorkOrderRepository {
	return &workOrderRepository{pool: pool}
}

func (r *workOrderRepository) Create(ctx context.Context, order *domain.WorkOrder) error {
	const query = `
        INSERT INTO work_orders (external_key, tenant_id, plant_id, asset_id, title, notes,
                                 status, priority, scheduled_at, sla_deadline, sla_exclude_pause)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		order.ExternalKey,
		order.TenantID,
		order.PlantID,
		order.AssetID,
		order.Title,
		order.Notes,
		order.Status,
		order.Priority,
		order.ScheduledAt,
		order.SLADeadline,
		order.SLAExcludePause,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
}

func (r *workOrderRepository) GetByID(ctx context.Context, tenantID, id string, plantID *string) (*domain.WorkOrder, error) {
	return fetchWorkOrder(ctx, r.pool, tenantID, id, plantID, false)
}

func (r *workOrderRepository) InTransaction(ctx context.Context, fn func(ctx context.Context, tx WorkOrderTx) error) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &workOrderTx{tx: tx})
	})
}

type workOrderTx struct {
	tx pgx.Tx
}

func (t *workOrderTx) LoadForUpdate(ctx context.Context, tenantID, id string, plantID *string) (*domain.WorkOrder, error) {
	return fetchWorkOrder(ctx, t.tx, tenantID, id, plantID, true)
}

func (t *workOrderTx) ApplyPatch(ctx context.Context, tenantID, id string, patch domain.WorkOrderPatch, plantID *string) (*domain.WorkOrder, error) {
	sets := []string{}
	args := []any{}

	addSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s=$%d", column, len(args)))
	}

	if patch.Status != nil {
		addSet("status", *patch.Status)
	}
	addOptString(addSet, "notes", patch.Notes)
	addOptString(addSet, "pause_reason", patch.PauseReason)
	addOptString(addSet, "cancel_reason", patch.CancelReason)
	addOptTime(addSet, "scheduled_at", patch.ScheduledAt)
	addOptTime(addSet, "analysis_started_at", patch.AnalysisStartedAt)
	addOptTime(addSet, "started_at", patch.StartedAt)
	addOptTime(addSet, "paused_at", patch.PausedAt)
	addOptTime(addSet, "completed_at", patch.CompletedAt)
	addOptTime(addSet, "closed_at", patch.ClosedAt)
	addOptTime(addSet, "cancelled_at", patch.CancelledAt)
	if patch.SLAExcludePause != nil {
		addSet("sla_exclude_pause", *patch.SLAExcludePause)
	}
	if patch.SLAPausedMS != nil {
		addSet("sla_paused_ms", *patch.SLAPausedMS)
	}
	addOptTime(addSet, "sla_pause_started_at", patch.SLAPauseStartedAt)

	sets = append(sets, "updated_at=NOW()")

	args = append(args, tenantID)
	where := []string{fmt.Sprintf("tenant_id=$%d", len(args))}
	args = append(args, id)
	where = append(where, fmt.Sprintf("id=$%d", len(args)))
	if plantID != nil {
		args = append(args, *plantID)
		where = append(where, fmt.Sprintf("plant_id=$%d", len(args)))
	}

	query := fmt.Sprintf(`UPDATE work_orders SET %s WHERE %s RETURNING %s`,
		strings.Join(sets, ", "), strings.Join(where, " AND "), workOrderColumns)

	return scanWorkOrderRow(t.tx.QueryRow(ctx, query, args...))
}

func (t *workOrderTx) AppendHistory(ctx context.Context, entry *domain.WorkOrderHistory) error {
	const query = `
        INSERT INTO work_order_history (work_order_id, tenant_id, from_status, to_status, reason)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return t.tx.QueryRow(ctx, query,
		entry.WorkOrderID,
		entry.TenantID,
		entry.FromStatus,
		entry.ToStatus,
		entry.Reason,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func addOptString(addSet func(string, any), column string, opt domain.OptString) {
	if opt.Set {
		addSet(column, opt.Value)
	}
}

func addOptTime(addSet func(string, any), column string, opt domain.OptTime) {
	if opt.Set {
		addSet(column, opt.Value)
	}
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func fetchWorkOrder(ctx context.Context, q rowQuerier, tenantID, id string, plantID *string, forUpdate bool) (*domain.WorkOrder, error) {
	args := []any{tenantID, id}
	where := "tenant_id=$1 AND id=$2"
	if plantID != nil {
		args = append(args, *plantID)
		where += " AND plant_id=$3"
	}
	query := fmt.Sprintf("SELECT %s FROM work_orders WHERE %s", workOrderColumns, where)
	if forUpdate {
		query += " FOR UPDATE"
	}
	return scanWorkOrderRow(q.QueryRow(ctx, query, args...))
}

func scanWorkOrderRow(row pgx.Row) (*domain.WorkOrder, error) {
	var order domain.WorkOrder
	if err := row.Scan(
		&order.ID,
		&order.ExternalKey,
		&order.TenantID,
		&order.PlantID,
		&order.AssetID,
		&order.Title,
		&order.Notes,
		&order.Status,
		&order.Priority,
		&order.ScheduledAt,
		&order.AnalysisStartedAt,
		&order.StartedAt,
		&order.PausedAt,
		&order.CompletedAt,
		&order.ClosedAt,
		&order.CancelledAt,
		&order.SLADeadline,
		&order.SLAExcludePause,
		&order.SLAPausedMS,
		&order.SLAPauseStartedAt,
		&order.PauseReason,
		&order.CancelReason,
		&order.CreatedAt,
		&order.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *workOrderRepository) ListWithFilter(ctx context.Context, filter WorkOrderFilter) ([]domain.WorkOrder, error) {
	base := fmt.Sprintf("SELECT %s FROM work_orders", workOrderColumns)
	args := []any{filter.TenantID}
	clauses := []string{"tenant_id=$1"}

	if filter.PlantID != nil {
		args = append(args, *filter.PlantID)
		clauses = append(clauses, fmt.Sprintf("plant_id=$%d", len(args)))
	}
	if filter.AssetID != nil {
		args = append(args, *filter.AssetID)
		clauses = append(clauses, fmt.Sprintf("asset_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.WorkOrder
	for rows.Next() {
		var order domain.WorkOrder
		if err := rows.Scan(
			&order.ID,
			&order.ExternalKey,
			&order.TenantID,
			&order.PlantID,
			&order.AssetID,
			&order.Title,
			&order.Notes,
			&order.Status,
			&order.Priority,
			&order.ScheduledAt,
			&order.AnalysisStartedAt,
			&order.StartedAt,
			&order.PausedAt,
			&order.CompletedAt,
			&order.ClosedAt,
			&order.CancelledAt,
			&order.SLADeadline,
			&order.SLAExcludePause,
			&order.SLAPausedMS,
			&order.SLAPauseStartedAt,
			&order.PauseReason,
			&order.CancelReason,
			&order.CreatedAt,
			&order.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, order)
	}
	return result, rows.Err()
}

func (r *workOrderRepository) ListHistory(ctx context.Context, tenantID, workOrderID string, limit, offset int) ([]domain.WorkOrderHistory, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	query := fmt.Sprintf(`
        SELECT id, work_order_id, tenant_id, from_status, to_status, reason, created_at
        FROM work_order_history WHERE tenant_id=$1 AND work_order_id=$2
        ORDER BY created_at ASC LIMIT %d OFFSET %d`, limit, offset)
	rows, err := r.pool.Query(ctx, query, tenantID, workOrderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.WorkOrderHistory
	for rows.Next() {
		var entry domain.WorkOrderHistory
		if err := rows.Scan(
			&entry.ID,
			&entry.WorkOrderID,
			&entry.TenantID,
			&entry.FromStatus,
			&entry.ToStatus,
			&entry.Reason,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
