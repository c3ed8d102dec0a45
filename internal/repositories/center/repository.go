package center

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

// Repository handles distribution center persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new distribution center repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// List returns the full center catalog ordered by name
func (r *Repository) List(ctx context.Context) ([]models.DistributionCenter, error) {
	ctx, span := tracing.StartSpan(ctx, "center.Repository.List")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "name", "code", "created_at", "updated_at")
	sb.From("distribution_centers")
	sb.OrderBy("name")

	query, args := sb.Build()
	var centers []models.DistributionCenter
	if err := r.db.SelectContext(ctx, &centers, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list distribution centers")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list distribution centers")
	}

	return centers, nil
}

// Get retrieves a center by ID
func (r *Repository) Get(ctx context.Context, id int64) (*models.DistributionCenter, error) {
	ctx, span := tracing.StartSpan(ctx, "center.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "name", "code", "created_at", "updated_at")
	sb.From("distribution_centers")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var center models.DistributionCenter
	if err := r.db.GetContext(ctx, &center, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("distribution center %d not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get distribution center")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get distribution center")
	}

	return &center, nil
}

// Create adds a center to the catalog
func (r *Repository) Create(ctx context.Context, req models.CreateCenterRequest) (*models.DistributionCenter, error) {
	ctx, span := tracing.StartSpan(ctx, "center.Repository.Create")
	defer span.End()

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	center := models.DistributionCenter{
		Name:      req.Name,
		Code:      req.Code,
		CreatedAt: now,
		UpdatedAt: now,
	}

	ib := database.NewInsertBuilder()
	ib.InsertInto("distribution_centers")
	ib.Cols("name", "code", "created_at", "updated_at")
	ib.Values(center.Name, center.Code, center.CreatedAt, center.UpdatedAt)
	ib.Returning("id")

	query, args := ib.Build()
	if err := tx.GetContext(ctx, &center.ID, query, args...); err != nil {
		if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == uniqueViolation {
			return nil, httperror.NewHTTPError(http.StatusConflict, fmt.Sprintf("distribution center %q already exists", req.Name))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to create distribution center")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create distribution center")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit transaction")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"id": center.ID, "name": center.Name}).Info("Created distribution center")
	return &center, nil
}
