package dispatchrecord

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/yarrow/pkg/database"
	"github.com/Ramsey-B/yarrow/pkg/models"
	"github.com/Ramsey-B/yarrow/pkg/normalizers"
	"github.com/Ramsey-B/yarrow/pkg/tracing"
)

var columns = []string{
	"id", "dispatch_ref", "dispatch_date", "sku", "description", "quantity",
	"origin_store_name", "origin_warehouse_name", "proposed_destination",
	"dest_store_name", "dest_warehouse_name", "entry_ref", "entry_date",
	"comments", "normalize_status", "normalize_notes", "unresolved",
	"normalized_at", "created_at",
}

// Repository handles raw dispatch record persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new dispatch record repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// rawColumnsFor maps an entity kind to the raw columns that can carry it.
// Dispatch rows can name a store or center in several export columns.
func rawColumnsFor(kind models.EntityKind) []string {
	switch kind {
	case models.KindCenter:
		return []string{"origin_store_name", "origin_warehouse_name"}
	case models.KindStore:
		return []string{"proposed_destination", "dest_store_name", "dest_warehouse_name"}
	case models.KindProduct:
		return []string{"sku"}
	default:
		return nil
	}
}

// ListForNormalization returns records awaiting normalization, optionally
// scoped to the month of the dispatch date.
func (r *Repository) ListForNormalization(ctx context.Context, period *time.Time) ([]models.DispatchRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "dispatchrecord.Repository.ListForNormalization")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("dispatch_records")
	sb.Where(sb.In("normalize_status", models.StatusPending, models.StatusError))
	if period != nil {
		sb.Where(sb.Equal("date_trunc('month', dispatch_date)", *period))
	}
	sb.OrderBy("id")

	query, args := sb.Build()
	var records []models.DispatchRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list dispatch records for normalization")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list dispatch records")
	}

	return records, nil
}

// ListByStatuses returns records in any of the given statuses
func (r *Repository) ListByStatuses(ctx context.Context, statuses ...string) ([]models.DispatchRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "dispatchrecord.Repository.ListByStatuses")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("dispatch_records")
	sb.Where(sb.In("normalize_status", sqlbuilder.List(statuses)))
	sb.OrderBy("id")

	query, args := sb.Build()
	var records []models.DispatchRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list dispatch records by status")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list dispatch records")
	}

	return records, nil
}

// CountByStatus returns per-status record counts
func (r *Repository) CountByStatus(ctx context.Context) ([]models.StatusSummary, error) {
	ctx, span := tracing.StartSpan(ctx, "dispatchrecord.Repository.CountByStatus")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("normalize_status", "COUNT(*) AS count")
	sb.From("dispatch_records")
	sb.GroupBy("normalize_status")
	sb.OrderBy("normalize_status")

	query, args := sb.Build()
	var summaries []models.StatusSummary
	if err := r.db.SelectContext(ctx, &summaries, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count dispatch records by status")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count dispatch records")
	}

	return summaries, nil
}

// BulkUpdateStatus flushes buffered status updates in one statement. Joins
// the transaction carried on the context.
func (r *Repository) BulkUpdateStatus(ctx context.Context, updates []models.RecordStatusUpdate) error {
	ctx, span := tracing.StartSpan(ctx, "dispatchrecord.Repository.BulkUpdateStatus")
	defer span.End()

	if len(updates) == 0 {
		return nil
	}

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	query, args, err := buildBulkStatusUpdate("dispatch_records", updates)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to build bulk status update")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update dispatch record statuses")
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to bulk update dispatch record statuses")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update dispatch record statuses")
	}

	if err := tx.Commit(ctx); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit transaction")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"count": len(updates)}).Debug("Bulk updated dispatch record statuses")
	return nil
}

// UpdateStatusByRawValue moves records carrying a raw value in any column of
// a kind from one status set to another.
func (r *Repository) UpdateStatusByRawValue(ctx context.Context, kind models.EntityKind, rawValue string, fromStatuses []string, toStatus string) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "dispatchrecord.Repository.UpdateStatusByRawValue")
	defer span.End()

	cols := rawColumnsFor(kind)
	if len(cols) == 0 {
		return 0, httperror.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("unknown entity kind %q", kind))
	}

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	query, args := buildStatusReset("dispatch_records", cols, rawValue, fromStatuses, toStatus)
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to reset dispatch record statuses")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to reset dispatch record statuses")
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit transaction")
	}

	affected, _ := result.RowsAffected()
	return affected, nil
}

// RewriteProductCode replaces a raw sku on records carrying the old value
// and requeues them for normalization.
func (r *Repository) RewriteProductCode(ctx context.Context, rawCode, newCode string, fromStatuses []string) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "dispatchrecord.Repository.RewriteProductCode")
	defer span.End()

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	query, args := buildProductCodeRewrite("dispatch_records", "sku", rawCode, newCode, fromStatuses)
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to rewrite dispatch record skus")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to rewrite dispatch record skus")
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit transaction")
	}

	affected, _ := result.RowsAffected()
	return affected, nil
}

func buildBulkStatusUpdate(table string, updates []models.RecordStatusUpdate) (string, []any, error) {
	var values strings.Builder
	args := make([]any, 0, len(updates)*5)

	for i, u := range updates {
		unresolved := u.Unresolved
		if unresolved == nil {
			unresolved = []models.UnresolvedField{}
		}
		payload, err := json.Marshal(unresolved)
		if err != nil {
			return "", nil, err
		}

		if i > 0 {
			values.WriteString(", ")
		}
		base := i * 5
		fmt.Fprintf(&values, "($%d::bigint, $%d::text, $%d::text, $%d::jsonb, $%d::timestamptz)",
			base+1, base+2, base+3, base+4, base+5)
		args = append(args, u.ID, u.Status, u.Notes, string(payload), u.NormalizedAt)
	}

	query := fmt.Sprintf(`UPDATE %s AS r
SET normalize_status = v.status,
    normalize_notes = v.notes,
    unresolved = v.unresolved,
    normalized_at = v.normalized_at
FROM (VALUES %s) AS v(id, status, notes, unresolved, normalized_at)
WHERE r.id = v.id`, table, values.String())

	return query, args, nil
}

func buildStatusReset(table string, cols []string, rawValue string, fromStatuses []string, toStatus string) (string, []any) {
	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update(table)

	assignments := []string{ub.Assign("normalize_status", toStatus)}
	switch toStatus {
	case models.StatusPending:
		assignments = append(assignments,
			ub.Assign("normalize_notes", ""),
			"unresolved = '[]'::jsonb",
			"normalized_at = NULL",
		)
	case models.StatusIgnored:
		assignments = append(assignments,
			ub.Assign("normalize_notes", "ignored by configuration"),
			"unresolved = '[]'::jsonb",
			"normalized_at = NULL",
		)
	}
	ub.Set(assignments...)

	matches := make([]string, len(cols))
	for i, col := range cols {
		matches[i] = ub.Equal(fmt.Sprintf("lower(trim(%s))", col), normalizers.Key(rawValue))
	}
	ub.Where(
		ub.In("normalize_status", sqlbuilder.List(fromStatuses)),
		ub.Or(matches...),
	)

	return ub.Build()
}

// buildProductCodeRewrite renders the raw-field edit used when mapping a
// misspelled product code onto an existing one.
func buildProductCodeRewrite(table, column, rawCode, newCode string, fromStatuses []string) (string, []any) {
	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update(table)
	ub.Set(
		ub.Assign(column, newCode),
		ub.Assign("normalize_status", models.StatusPending),
		ub.Assign("normalize_notes", ""),
		"unresolved = '[]'::jsonb",
		"normalized_at = NULL",
	)
	ub.Where(
		ub.In("normalize_status", sqlbuilder.List(fromStatuses)),
		ub.Equal(fmt.Sprintf("lower(trim(%s))", column), normalizers.Key(rawCode)),
	)

	return ub.Build()
}
