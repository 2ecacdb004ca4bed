package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/auto-insurance/internal/model"
	"github.com/iliyamo/auto-insurance/internal/service"
)

// ClaimEngine is the claim lifecycle as seen by the REST layer.
type ClaimEngine interface {
	Create(ctx context.Context, in service.CreateClaimInput) (*model.Claim, error)
	Get(ctx context.Context, claimID int64) (*model.Claim, error)
	Register(ctx context.Context, claimID, managerUserID int64) (*model.Claim, error)
	Decide(ctx context.Context, claimID, managerUserID int64, decision string, payout any) (*model.Claim, error)
	Pay(ctx context.Context, claimID, managerUserID int64) (*model.Claim, error)
}

// ClaimHandler exposes /v1/claims.
type ClaimHandler struct {
	Claims ClaimEngine
}

func NewClaimHandler(claims ClaimEngine) *ClaimHandler {
	if claims == nil {
		panic("nil claim engine passed to NewClaimHandler")
	}
	return &ClaimHandler{Claims: claims}
}

// managerBody is the body of register, decision and pay.
type managerBody struct {
	ManagerUserID  *int64 `json:"manager_user_id"`
	Decision       string `json:"decision"`
	ApprovedPayout any    `json:"approved_payout"`
}

// Create handles POST /v1/claims.
func (h *ClaimHandler) Create(c echo.Context) error {
	var in service.CreateClaimInput
	if err := bind(c, &in); err != nil {
		return respondError(c, err)
	}
	claim, err := h.Claims.Create(c.Request().Context(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, claim)
}

// Get handles GET /v1/claims/:id.
func (h *ClaimHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	claim, err := h.Claims.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, claim)
}

// Register handles POST /v1/claims/:id/register.
func (h *ClaimHandler) Register(c echo.Context) error {
	return h.transition(c, func(ctx context.Context, id, manager int64, _ managerBody) (*model.Claim, error) {
		return h.Claims.Register(ctx, id, manager)
	})
}

// Decide handles POST /v1/claims/:id/decision.
func (h *ClaimHandler) Decide(c echo.Context) error {
	return h.transition(c, func(ctx context.Context, id, manager int64, body managerBody) (*model.Claim, error) {
		return h.Claims.Decide(ctx, id, manager, body.Decision, body.ApprovedPayout)
	})
}

// Pay handles POST /v1/claims/:id/pay.
func (h *ClaimHandler) Pay(c echo.Context) error {
	return h.transition(c, func(ctx context.Context, id, manager int64, _ managerBody) (*model.Claim, error) {
		return h.Claims.Pay(ctx, id, manager)
	})
}

func (h *ClaimHandler) transition(c echo.Context, step func(context.Context, int64, int64, managerBody) (*model.Claim, error)) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var body managerBody
	if err := bind(c, &body); err != nil {
		return respondError(c, err)
	}
	manager, err := requireActor(body.ManagerUserID, "manager_user_id")
	if err != nil {
		return respondError(c, err)
	}
	claim, err := step(c.Request().Context(), id, manager, body)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, claim)
}
