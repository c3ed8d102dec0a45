package master

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/yarrow/internal/repositories/center"
	"github.com/Ramsey-B/yarrow/internal/repositories/product"
	"github.com/Ramsey-B/yarrow/internal/repositories/store"
	"github.com/Ramsey-B/yarrow/pkg/tracing"
)

// Register registers master data read routes
func Register(g *echo.Group) {
	g.GET("/centers", ListCenters)
	g.GET("/stores", ListStores)
	g.GET("/products", ListProducts)
}

// ListCenters returns all distribution centers
func ListCenters(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "master_handler.ListCenters")
	defer span.End()

	ctx, repo, err := ectoinject.GetContext[*center.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	items, err := repo.List(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, items)
}

// ListStores returns all stores
func ListStores(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "master_handler.ListStores")
	defer span.End()

	ctx, repo, err := ectoinject.GetContext[*store.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	items, err := repo.List(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, items)
}

// ListProducts returns all products
func ListProducts(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "master_handler.ListProducts")
	defer span.End()

	ctx, repo, err := ectoinject.GetContext[*product.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	items, err := repo.List(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, items)
}
