package plannormalized

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/yarrow/pkg/database"
	"github.com/Ramsey-B/yarrow/pkg/models"
	"github.com/Ramsey-B/yarrow/pkg/tracing"
)

// Repository handles normalized plan row persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new normalized plan repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// MapByRawIDs returns the existing normalized rows for the given raw record
// ids, keyed by raw id. Joins the transaction carried on the context.
func (r *Repository) MapByRawIDs(ctx context.Context, rawIDs []int64) (map[int64]models.PlanNormalized, error) {
	ctx, span := tracing.StartSpan(ctx, "plannormalized.Repository.MapByRawIDs")
	defer span.End()

	out := make(map[int64]models.PlanNormalized, len(rawIDs))
	if len(rawIDs) == 0 {
		return out, nil
	}

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "raw_id", "plan_month", "load_type", "item_code", "item_name", "product_id", "store_id", "center_id", "center_name", "planned_qty", "created_at", "updated_at")
	sb.From("plan_normalized")
	sb.Where(sb.In("raw_id", sqlbuilder.List(rawIDs)))

	query, args := sb.Build()
	var rows []models.PlanNormalized
	if err := tx.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to load normalized plan rows")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to load normalized plan rows")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit transaction")
	}

	for _, row := range rows {
		out[row.RawID] = row
	}
	return out, nil
}

// BulkUpsert writes normalized rows in one statement, replacing the row for
// a raw record when it already exists.
func (r *Repository) BulkUpsert(ctx context.Context, rows []models.PlanNormalized) error {
	ctx, span := tracing.StartSpan(ctx, "plannormalized.Repository.BulkUpsert")
	defer span.End()

	if len(rows) == 0 {
		return nil
	}

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	ib := database.NewInsertBuilder()
	ib.InsertInto("plan_normalized")
	ib.Cols("raw_id", "plan_month", "load_type", "item_code", "item_name", "product_id", "store_id", "center_id", "center_name", "planned_qty", "created_at", "updated_at")
	for _, row := range rows {
		ib.Values(row.RawID, row.PlanMonth, row.LoadType, row.ItemCode, row.ItemName, row.ProductID, row.StoreID, row.CenterID, row.CenterName, row.PlannedQty, now, now)
	}
	ib.OnConflictUpdate([]string{"raw_id"},
		"plan_month", "load_type", "item_code", "item_name", "product_id", "store_id", "center_id", "center_name", "planned_qty", "updated_at")

	query, args := ib.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to upsert normalized plan rows")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert normalized plan rows")
	}

	if err := tx.Commit(ctx); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit transaction")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"count": len(rows)}).Debug("Upserted normalized plan rows")
	return nil
}
