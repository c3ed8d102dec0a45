package ignored

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"
	"github.com/lib/pq"

	"github.com/Ramsey-B/yarrow/pkg/database"
	"github.com/Ramsey-B/yarrow/pkg/models"
	"github.com/Ramsey-B/yarrow/pkg/normalizers"
	"github.com/Ramsey-B/yarrow/pkg/tracing"
)

const uniqueViolation = "23505"

// Repository handles ignore list persistence. Center and store ignores live
// in separate tables picked by kind.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new ignore list repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func tableFor(kind models.EntityKind) (string, error) {
	switch kind {
	case models.KindCenter:
		return "ignored_center_names", nil
	case models.KindStore:
		return "ignored_store_names", nil
	default:
		return "", httperror.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("no ignore list for kind %q", kind))
	}
}

// ListIgnored returns the ignore entries for a kind
func (r *Repository) ListIgnored(ctx context.Context, kind models.EntityKind) ([]models.IgnoredName, error) {
	ctx, span := tracing.StartSpan(ctx, "ignored.Repository.ListIgnored")
	defer span.End()

	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "raw_name", "reason", "created_at")
	sb.From(table)
	sb.OrderBy("raw_name")

	query, args := sb.Build()
	var entries []models.IgnoredName
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list ignore entries")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list ignore entries")
	}

	return entries, nil
}

// Create records an ignore entry for a kind
func (r *Repository) Create(ctx context.Context, kind models.EntityKind, rawName, reason string) (*models.IgnoredName, error) {
	ctx, span := tracing.StartSpan(ctx, "ignored.Repository.Create")
	defer span.End()

	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	entry := models.IgnoredName{
		RawName:   rawName,
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
	}

	ib := database.NewInsertBuilder()
	ib.InsertInto(table)
	ib.Cols("raw_name", "reason", "created_at")
	ib.Values(entry.RawName, entry.Reason, entry.CreatedAt)
	ib.Returning("id")

	query, args := ib.Build()
	if err := tx.GetContext(ctx, &entry.ID, query, args...); err != nil {
		if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == uniqueViolation {
			return nil, httperror.NewHTTPError(http.StatusConflict, fmt.Sprintf("%q is already ignored", rawName))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to create ignore entry")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create ignore entry")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit transaction")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"kind": kind, "raw_name": rawName}).Info("Created ignore entry")
	return &entry, nil
}

// DeleteByRawName removes an ignore entry, matching the raw name the way the
// resolver does (trimmed, case-insensitive). Returns the deleted entry.
func (r *Repository) DeleteByRawName(ctx context.Context, kind models.EntityKind, rawName string) (*models.IgnoredName, error) {
	ctx, span := tracing.StartSpan(ctx, "ignored.Repository.DeleteByRawName")
	defer span.End()

	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "raw_name", "reason", "created_at")
	sb.From(table)
	sb.Where(sb.Equal("lower(trim(raw_name))", normalizers.Key(rawName)))

	query, args := sb.Build()
	var entry models.IgnoredName
	if err := tx.GetContext(ctx, &entry, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("ignore entry %q not found", rawName))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to load ignore entry")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete ignore entry")
	}

	db := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	db.DeleteFrom(table)
	db.Where(db.Equal("id", entry.ID))

	query, args = db.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to delete ignore entry")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete ignore entry")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit transaction")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"kind": kind, "raw_name": entry.RawName}).Info("Deleted ignore entry")
	return &entry, nil
}
