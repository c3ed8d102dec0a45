package dispatchnormalized

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

// Repository handles normalized dispatch row persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new normalized dispatch repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// MapByRawIDs returns the existing normalized rows for the given raw record
// ids, keyed by raw id. Joins the transaction carried on the context.
func (r *Repository) MapByRawIDs(ctx context.Context, rawIDs []int64) (map[int64]models.DispatchNormalized, error) {
	ctx, span := tracing.StartSpan(ctx, "dispatchnormalized.Repository.MapByRawIDs")
	defer span.End()

	out := make(map[int64]models.DispatchNormalized, len(rawIDs))
	if len(rawIDs) == 0 {
		return out, nil
	}

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "raw_id", "dispatch_ref", "dispatch_date", "sku", "description", "product_id", "center_id", "store_id", "quantity", "origin_name", "dest_name", "entry_ref", "entry_date", "comments", "created_at", "updated_at")
	sb.From("dispatch_normalized")
	sb.Where(sb.In("raw_id", sqlbuilder.List(rawIDs)))

	query, args := sb.Build()
	var rows []models.DispatchNormalized
	if err := tx.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to load normalized dispatch rows")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to load normalized dispatch rows")
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
func (r *Repository) BulkUpsert(ctx context.Context, rows []models.DispatchNormalized) error {
	ctx, span := tracing.StartSpan(ctx, "dispatchnormalized.Repository.BulkUpsert")
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
	ib.InsertInto("dispatch_normalized")
	ib.Cols("raw_id", "dispatch_ref", "dispatch_date", "sku", "description", "product_id", "center_id", "store_id", "quantity", "origin_name", "dest_name", "entry_ref", "entry_date", "comments", "created_at", "updated_at")
	for _, row := range rows {
		ib.Values(row.RawID, row.DispatchRef, row.DispatchDate, row.SKU, row.Description, row.ProductID, row.CenterID, row.StoreID, row.Quantity, row.OriginName, row.DestName, row.EntryRef, row.EntryDate, row.Comments, now, now)
	}
	ib.OnConflictUpdate([]string{"raw_id"},
		"dispatch_ref", "dispatch_date", "sku", "description", "product_id", "center_id", "store_id", "quantity", "origin_name", "dest_name", "entry_ref", "entry_date", "comments", "updated_at")

	query, args := ib.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to upsert normalized dispatch rows")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert normalized dispatch rows")
	}

	if err := tx.Commit(ctx); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit transaction")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"count": len(rows)}).Debug("Upserted normalized dispatch rows")
	return nil
}
