package normalize

import (
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/yarrow/pkg/pipeline"
	"github.com/Ramsey-B/yarrow/pkg/tracing"
)

// Register registers normalization routes
func Register(g *echo.Group) {
	g.POST("", All)
	g.POST("/plans", Plans)
	g.POST("/dispatches", Dispatches)
	g.GET("/summary", Summary)
}

// parsePeriod reads the optional period query param as YYYY-MM.
func parsePeriod(c echo.Context) (*time.Time, error) {
	raw := c.QueryParam("period")
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01", raw)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "period must be formatted as YYYY-MM")
	}
	return &t, nil
}

// Plans runs the normalization pipeline over plan records
func Plans(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "normalize_handler.Plans")
	defer span.End()

	period, err := parsePeriod(c)
	if err != nil {
		return err
	}

	ctx, pipe, err := ectoinject.GetContext[*pipeline.Pipeline](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get pipeline")
	}

	result, err := pipe.NormalizePlans(ctx, period)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// Dispatches runs the normalization pipeline over dispatch records
func Dispatches(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "normalize_handler.Dispatches")
	defer span.End()

	period, err := parsePeriod(c)
	if err != nil {
		return err
	}

	ctx, pipe, err := ectoinject.GetContext[*pipeline.Pipeline](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get pipeline")
	}

	result, err := pipe.NormalizeDispatches(ctx, period)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// All runs the normalization pipeline over both record sets
func All(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "normalize_handler.All")
	defer span.End()

	period, err := parsePeriod(c)
	if err != nil {
		return err
	}

	ctx, pipe, err := ectoinject.GetContext[*pipeline.Pipeline](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get pipeline")
	}

	summary, err := pipe.NormalizeAll(ctx, period)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, summary)
}

// Summary returns per-status record counts for both record sets
func Summary(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "normalize_handler.Summary")
	defer span.End()

	ctx, pipe, err := ectoinject.GetContext[*pipeline.Pipeline](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get pipeline")
	}

	summary, err := pipe.Summary(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, summary)
}
