package product

import (
	"context"
	"database/sql"
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

// Repository handles product persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new product repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// List returns the product catalog ordered by code
func (r *Repository) List(ctx context.Context) ([]models.Product, error) {
	ctx, span := tracing.StartSpan(ctx, "product.Repository.List")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "code", "name", "category", "created_at", "updated_at")
	sb.From("products")
	sb.OrderBy("code")

	query, args := sb.Build()
	var products []models.Product
	if err := r.db.SelectContext(ctx, &products, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list products")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list products")
	}

	return products, nil
}

// GetByCode returns the product whose code matches the raw value, compared
// with the same key normalization the index uses.
func (r *Repository) GetByCode(ctx context.Context, code string) (*models.Product, error) {
	ctx, span := tracing.StartSpan(ctx, "product.Repository.GetByCode")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "code", "name", "category", "created_at", "updated_at")
	sb.From("products")
	sb.Where(sb.Equal("lower(trim(code))", normalizers.Key(code)))

	query, args := sb.Build()
	var product models.Product
	if err := r.db.GetContext(ctx, &product, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("product %q not found", code))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to load product by code")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to load product")
	}

	return &product, nil
}

// Create adds a product to the catalog
func (r *Repository) Create(ctx context.Context, req models.CreateProductRequest) (*models.Product, error) {
	ctx, span := tracing.StartSpan(ctx, "product.Repository.Create")
	defer span.End()

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	product := models.Product{
		Code:      req.Code,
		Name:      req.Name,
		Category:  req.Category,
		CreatedAt: now,
		UpdatedAt: now,
	}

	ib := database.NewInsertBuilder()
	ib.InsertInto("products")
	ib.Cols("code", "name", "category", "created_at", "updated_at")
	ib.Values(product.Code, product.Name, product.Category, product.CreatedAt, product.UpdatedAt)
	ib.Returning("id")

	query, args := ib.Build()
	if err := tx.GetContext(ctx, &product.ID, query, args...); err != nil {
		if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == uniqueViolation {
			return nil, httperror.NewHTTPError(http.StatusConflict, fmt.Sprintf("product %q already exists", req.Code))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to create product")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create product")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit transaction")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"id": product.ID, "code": product.Code}).Info("Created product")
	return &product, nil
}
