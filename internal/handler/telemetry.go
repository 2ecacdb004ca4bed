package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/auto-insurance/internal/model"
	"github.com/iliyamo/auto-insurance/internal/service"
)

// TelemetryEngine classifies and lists telemetry samples.
type TelemetryEngine interface {
	Classify(ctx context.Context, in service.TelemetryInput) (*model.TelemetryEvent, error)
	ListByVehicle(ctx context.Context, vehicleID int64, limit int) ([]model.TelemetryEvent, error)
}

type TelemetryHandler struct {
	Telemetry TelemetryEngine
}

func NewTelemetryHandler(t TelemetryEngine) *TelemetryHandler {
	if t == nil {
		panic("nil telemetry engine passed to NewTelemetryHandler")
	}
	return &TelemetryHandler{Telemetry: t}
}

// Create handles POST /v1/telemetry and returns the severity-stamped event.
func (h *TelemetryHandler) Create(c echo.Context) error {
	var in service.TelemetryInput
	if err := bind(c, &in); err != nil {
		return respondError(c, err)
	}
	ev, err := h.Telemetry.Classify(c.Request().Context(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, ev)
}

// ListByVehicle handles GET /v1/vehicles/:id/telemetry?limit=N.
func (h *TelemetryHandler) ListByVehicle(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		return respondError(c, err)
	}
	items, err := h.Telemetry.ListByVehicle(c.Request().Context(), id, limit)
	if err != nil {
		return respondError(c, err)
	}
	if items == nil {
		items = []model.TelemetryEvent{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
