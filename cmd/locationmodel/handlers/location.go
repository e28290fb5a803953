package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/awschultz/locationmodel/cmd/locationmodel/middleware"
	"github.com/awschultz/locationmodel/cmd/locationmodel/service"
	"github.com/awschultz/locationmodel/common/logger"
	"github.com/awschultz/locationmodel/common/models"
	"github.com/labstack/echo/v4"
)

// LocationModel is the service surface the HTTP handlers use
type LocationModel interface {
	Rebuild(ctx context.Context, requestedBy string) (*service.BuildSummary, error)
	LocationDetails(ctx context.Context, locationID int64) (map[string]any, error)
	Tree(ctx context.Context, locationID int64, opts service.TreeOptions) (models.TreeResult, error)
	Components(ctx context.Context, locationID int64) ([]models.Component, error)
	LocationIDFromPath(ctx context.Context, locationPath string) (int64, error)
}

// FilterCompiler turns a filter expression into a predicate
type FilterCompiler interface {
	Compile(expr string) (func(details map[string]any) bool, error)
}

// LocationHandler handles location model requests
type LocationHandler struct {
	model   LocationModel
	filters FilterCompiler
	log     *logger.Logger
}

// NewLocationHandler creates a new location handler
func NewLocationHandler(model LocationModel, filters FilterCompiler, log *logger.Logger) *LocationHandler {
	return &LocationHandler{
		model:   model,
		filters: filters,
		log:     log,
	}
}

// Rebuild rebuilds and persists the location model
// POST /api/v1/model/rebuild
func (h *LocationHandler) Rebuild(c echo.Context) error {
	summary, err := h.model.Rebuild(c.Request().Context(), middleware.GetUsername(c))
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}

// GetLocation returns one location's column map
// GET /api/v1/locations/:id
func (h *LocationHandler) GetLocation(c echo.Context) error {
	locationID, err := locationIDParam(c)
	if err != nil {
		return err
	}

	details, err := h.model.LocationDetails(c.Request().Context(), locationID)
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusOK, details)
}

// GetTree materializes the subtree under a location
// GET /api/v1/locations/:id/tree?expanded=true&filter=<cel>&transform=<json patch>
func (h *LocationHandler) GetTree(c echo.Context) error {
	locationID, err := locationIDParam(c)
	if err != nil {
		return err
	}

	opts := service.TreeOptions{}

	if raw := c.QueryParam("expanded"); raw != "" {
		opts.Expanded, err = strconv.ParseBool(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "expanded must be a boolean")
		}
	}

	if expr := c.QueryParam("filter"); expr != "" {
		filter, err := h.filters.Compile(expr)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid filter: "+err.Error())
		}
		opts.Filter = filter
	}

	if patch := c.QueryParam("transform"); patch != "" {
		transform, err := service.NewPatchTransform([]byte(patch), h.log)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid transform: "+err.Error())
		}
		opts.Transform = transform
	}

	result, err := h.model.Tree(c.Request().Context(), locationID, opts)
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// GetComponents lists the components attached to a location
// GET /api/v1/locations/:id/components
func (h *LocationHandler) GetComponents(c echo.Context) error {
	locationID, err := locationIDParam(c)
	if err != nil {
		return err
	}

	components, err := h.model.Components(c.Request().Context(), locationID)
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusOK, components)
}

// LookupLocation resolves a name path to a location ID
// GET /api/v1/locations/lookup?path=Plant/Packaging/Line 1
func (h *LocationHandler) LookupLocation(c echo.Context) error {
	path := c.QueryParam("path")
	if path == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "path is required")
	}

	locationID, err := h.model.LocationIDFromPath(c.Request().Context(), path)
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"locationID": locationID,
	})
}

func locationIDParam(c echo.Context) (int64, error) {
	locationID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid location id")
	}
	return locationID, nil
}

func (h *LocationHandler) httpError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, models.ErrLocationNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrBrokenReference):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrSnapshotNotFound):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "location model has not been built yet")
	case errors.Is(err, service.ErrBuildInProgress):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		h.log.WithContext(c.Request().Context()).Error("location model request failed",
			"path", c.Path(),
			"error", err,
		)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
