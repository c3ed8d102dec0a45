package resolution

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/yarrow/pkg/classifier"
	"github.com/Ramsey-B/yarrow/pkg/corrections"
	"github.com/Ramsey-B/yarrow/pkg/models"
	"github.com/Ramsey-B/yarrow/pkg/tracing"
)

var validate = validator.New()

// Register registers resolution report and correction routes
func Register(g *echo.Group) {
	g.GET("/plans", PlanErrors)
	g.GET("/dispatches", DispatchErrors)
	g.POST("/centers", CreateCenter)
	g.POST("/centers/aliases", MapCenterAlias)
	g.POST("/stores", CreateStore)
	g.POST("/stores/aliases", MapStoreAlias)
	g.POST("/products", CreateProduct)
	g.POST("/products/mappings", MapProduct)
	g.POST("/ignores", IgnoreName)
	g.DELETE("/ignores", UnignoreName)
	g.DELETE("/aliases", DeleteAlias)
}

// PlanErrors returns grouped unresolved plan values with suggestions
func PlanErrors(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "resolution_handler.PlanErrors")
	defer span.End()

	ctx, svc, err := ectoinject.GetContext[*classifier.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get classifier")
	}

	groups, err := svc.PlanErrors(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, groups)
}

// DispatchErrors returns grouped unresolved dispatch values with suggestions
func DispatchErrors(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "resolution_handler.DispatchErrors")
	defer span.End()

	ctx, svc, err := ectoinject.GetContext[*classifier.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get classifier")
	}

	groups, err := svc.DispatchErrors(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, groups)
}

// CreateCenter creates a distribution center and requeues matching errors
func CreateCenter(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "resolution_handler.CreateCenter")
	defer span.End()

	var req models.CreateCenterRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, svc, err := ectoinject.GetContext[*corrections.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get corrections service")
	}

	result, err := svc.CreateCenter(ctx, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, result)
}

// CreateStore creates a store and requeues matching errors
func CreateStore(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "resolution_handler.CreateStore")
	defer span.End()

	var req models.CreateStoreRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, svc, err := ectoinject.GetContext[*corrections.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get corrections service")
	}

	result, err := svc.CreateStore(ctx, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, result)
}

// CreateProduct creates a product and requeues matching errors
func CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "resolution_handler.CreateProduct")
	defer span.End()

	var req models.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, svc, err := ectoinject.GetContext[*corrections.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get corrections service")
	}

	result, err := svc.CreateProduct(ctx, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, result)
}

// MapProduct rewrites a raw item code to an existing product's code
func MapProduct(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "resolution_handler.MapProduct")
	defer span.End()

	var req models.MapProductRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, svc, err := ectoinject.GetContext[*corrections.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get corrections service")
	}

	result, err := svc.MapProduct(ctx, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// MapCenterAlias maps a raw name to an existing distribution center
func MapCenterAlias(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "resolution_handler.MapCenterAlias")
	defer span.End()

	var req models.MapCenterAliasRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, svc, err := ectoinject.GetContext[*corrections.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get corrections service")
	}

	result, err := svc.MapCenterAlias(ctx, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, result)
}

// MapStoreAlias maps a raw name to an existing store
func MapStoreAlias(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "resolution_handler.MapStoreAlias")
	defer span.End()

	var req models.MapStoreAliasRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, svc, err := ectoinject.GetContext[*corrections.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get corrections service")
	}

	result, err := svc.MapStoreAlias(ctx, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, result)
}

// IgnoreName marks a raw name as intentionally unmapped
func IgnoreName(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "resolution_handler.IgnoreName")
	defer span.End()

	var req models.IgnoreNameRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, svc, err := ectoinject.GetContext[*corrections.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get corrections service")
	}

	result, err := svc.IgnoreName(ctx, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, result)
}

// UnignoreName removes an ignore entry and requeues matching records
func UnignoreName(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "resolution_handler.UnignoreName")
	defer span.End()

	var req models.UnignoreNameRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, svc, err := ectoinject.GetContext[*corrections.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get corrections service")
	}

	if err := svc.UnignoreName(ctx, req); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// DeleteAlias removes an alias mapping and requeues matching records
func DeleteAlias(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "resolution_handler.DeleteAlias")
	defer span.End()

	var req models.DeleteAliasRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, svc, err := ectoinject.GetContext[*corrections.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get corrections service")
	}

	if err := svc.DeleteAlias(ctx, req); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}
