package store

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

// Repository handles store persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new store repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// List returns the full store catalog ordered by name
func (r *Repository) List(ctx context.Context) ([]models.Store, error) {
	ctx, span := tracing.StartSpan(ctx, "store.Repository.List")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "external_id", "name", "created_at", "updated_at")
	sb.From("stores")
	sb.OrderBy("name")

	query, args := sb.Build()
	var stores []models.Store
	if err := r.db.SelectContext(ctx, &stores, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list stores")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list stores")
	}

	return stores, nil
}

// Get retrieves a store by ID
func (r *Repository) Get(ctx context.Context, id int64) (*models.Store, error) {
	ctx, span := tracing.StartSpan(ctx, "store.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "external_id", "name", "created_at", "updated_at")
	sb.From("stores")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var store models.Store
	if err := r.db.GetContext(ctx, &store, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("store %d not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get store")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get store")
	}

	return &store, nil
}

// Create adds a store to the catalog
func (r *Repository) Create(ctx context.Context, req models.CreateStoreRequest) (*models.Store, error) {
	ctx, span := tracing.StartSpan(ctx, "store.Repository.Create")
	defer span.End()

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	store := models.Store{
		ExternalID: req.ExternalID,
		Name:       req.Name,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	ib := database.NewInsertBuilder()
	ib.InsertInto("stores")
	ib.Cols("external_id", "name", "created_at", "updated_at")
	ib.Values(store.ExternalID, store.Name, store.CreatedAt, store.UpdatedAt)
	ib.Returning("id")

	query, args := ib.Build()
	if err := tx.GetContext(ctx, &store.ID, query, args...); err != nil {
		if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == uniqueViolation {
			return nil, httperror.NewHTTPError(http.StatusConflict, fmt.Sprintf("store %q already exists", req.Name))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to create store")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create store")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit transaction")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"id": store.ID, "name": store.Name}).Info("Created store")
	return &store, nil
}
