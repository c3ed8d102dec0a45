package alias

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
	"github.com/Ramsey-B/yarrow/pkg/tracing"
)

const uniqueViolation = "23505"

// Repository handles alias persistence for centers and stores
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new alias repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// ListCenterAliases returns all center alias mappings
func (r *Repository) ListCenterAliases(ctx context.Context) ([]models.CenterAlias, error) {
	ctx, span := tracing.StartSpan(ctx, "alias.Repository.ListCenterAliases")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "raw_name", "center_id", "created_at")
	sb.From("center_aliases")
	sb.OrderBy("raw_name")

	query, args := sb.Build()
	var aliases []models.CenterAlias
	if err := r.db.SelectContext(ctx, &aliases, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list center aliases")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list center aliases")
	}

	return aliases, nil
}

// ListStoreAliases returns all store alias mappings
func (r *Repository) ListStoreAliases(ctx context.Context) ([]models.StoreAlias, error) {
	ctx, span := tracing.StartSpan(ctx, "alias.Repository.ListStoreAliases")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "raw_name", "store_id", "created_at")
	sb.From("store_aliases")
	sb.OrderBy("raw_name")

	query, args := sb.Build()
	var aliases []models.StoreAlias
	if err := r.db.SelectContext(ctx, &aliases, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list store aliases")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list store aliases")
	}

	return aliases, nil
}

// CreateCenterAlias maps a raw name to a center
func (r *Repository) CreateCenterAlias(ctx context.Context, rawName string, centerID int64) (*models.CenterAlias, error) {
	ctx, span := tracing.StartSpan(ctx, "alias.Repository.CreateCenterAlias")
	defer span.End()

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	a := models.CenterAlias{
		RawName:   rawName,
		CenterID:  centerID,
		CreatedAt: time.Now().UTC(),
	}

	ib := database.NewInsertBuilder()
	ib.InsertInto("center_aliases")
	ib.Cols("raw_name", "center_id", "created_at")
	ib.Values(a.RawName, a.CenterID, a.CreatedAt)
	ib.Returning("id")

	query, args := ib.Build()
	if err := tx.GetContext(ctx, &a.ID, query, args...); err != nil {
		if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == uniqueViolation {
			return nil, httperror.NewHTTPError(http.StatusConflict, fmt.Sprintf("alias %q already exists", rawName))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to create center alias")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create center alias")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit transaction")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"raw_name": rawName, "center_id": centerID}).Info("Created center alias")
	return &a, nil
}

// CreateStoreAlias maps a raw name to a store
func (r *Repository) CreateStoreAlias(ctx context.Context, rawName string, storeID int64) (*models.StoreAlias, error) {
	ctx, span := tracing.StartSpan(ctx, "alias.Repository.CreateStoreAlias")
	defer span.End()

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	a := models.StoreAlias{
		RawName:   rawName,
		StoreID:   storeID,
		CreatedAt: time.Now().UTC(),
	}

	ib := database.NewInsertBuilder()
	ib.InsertInto("store_aliases")
	ib.Cols("raw_name", "store_id", "created_at")
	ib.Values(a.RawName, a.StoreID, a.CreatedAt)
	ib.Returning("id")

	query, args := ib.Build()
	if err := tx.GetContext(ctx, &a.ID, query, args...); err != nil {
		if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == uniqueViolation {
			return nil, httperror.NewHTTPError(http.StatusConflict, fmt.Sprintf("alias %q already exists", rawName))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to create store alias")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create store alias")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit transaction")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"raw_name": rawName, "store_id": storeID}).Info("Created store alias")
	return &a, nil
}

// DeleteCenterAlias removes a center alias by id, returning the deleted row
func (r *Repository) DeleteCenterAlias(ctx context.Context, id int64) (*models.CenterAlias, error) {
	ctx, span := tracing.StartSpan(ctx, "alias.Repository.DeleteCenterAlias")
	defer span.End()

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "raw_name", "center_id", "created_at")
	sb.From("center_aliases")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var a models.CenterAlias
	if err := tx.GetContext(ctx, &a, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("center alias %d not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to load center alias")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete center alias")
	}

	db := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	db.DeleteFrom("center_aliases")
	db.Where(db.Equal("id", id))

	query, args = db.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to delete center alias")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete center alias")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit transaction")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"id": id, "raw_name": a.RawName}).Info("Deleted center alias")
	return &a, nil
}

// DeleteStoreAlias removes a store alias by id, returning the deleted row
func (r *Repository) DeleteStoreAlias(ctx context.Context, id int64) (*models.StoreAlias, error) {
	ctx, span := tracing.StartSpan(ctx, "alias.Repository.DeleteStoreAlias")
	defer span.End()

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "raw_name", "store_id", "created_at")
	sb.From("store_aliases")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var a models.StoreAlias
	if err := tx.GetContext(ctx, &a, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("store alias %d not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to load store alias")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete store alias")
	}

	db := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	db.DeleteFrom("store_aliases")
	db.Where(db.Equal("id", id))

	query, args = db.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to delete store alias")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete store alias")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit transaction")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"id": id, "raw_name": a.RawName}).Info("Deleted store alias")
	return &a, nil
}
