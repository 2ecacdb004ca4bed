package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/auto-insurance/internal/model"
	"github.com/iliyamo/auto-insurance/internal/service"
)

// PolicyEngine prices and activates policies.
type PolicyEngine interface {
	Create(ctx context.Context, in service.CreatePolicyInput) (*model.Policy, error)
	Get(ctx context.Context, policyID int64) (*model.Policy, error)
	Activate(ctx context.Context, policyID int64) (*model.Policy, error)
}

// PaymentRecorder stores policy payments.
type PaymentRecorder interface {
	Record(ctx context.Context, in service.RecordPaymentInput) (*model.Payment, error)
}

// PolicyHandler exposes /v1/policies and /v1/payments.
type PolicyHandler struct {
	Policies PolicyEngine
	Payments PaymentRecorder
}

func NewPolicyHandler(policies PolicyEngine, payments PaymentRecorder) *PolicyHandler {
	if policies == nil || payments == nil {
		panic("nil dependency passed to NewPolicyHandler")
	}
	return &PolicyHandler{Policies: policies, Payments: payments}
}

// Create handles POST /v1/policies. The response carries the computed
// final_premium and status Draft.
func (h *PolicyHandler) Create(c echo.Context) error {
	var in service.CreatePolicyInput
	if err := bind(c, &in); err != nil {
		return respondError(c, err)
	}
	p, err := h.Policies.Create(c.Request().Context(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

// Get handles GET /v1/policies/:id.
func (h *PolicyHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	p, err := h.Policies.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// Activate handles POST /v1/policies/:id/activate.
func (h *PolicyHandler) Activate(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	p, err := h.Policies.Activate(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// RecordPayment handles POST /v1/payments.
func (h *PolicyHandler) RecordPayment(c echo.Context) error {
	var in service.RecordPaymentInput
	if err := bind(c, &in); err != nil {
		return respondError(c, err)
	}
	p, err := h.Payments.Record(c.Request().Context(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}
