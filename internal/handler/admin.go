package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/auto-insurance/internal/apperr"
	"github.com/iliyamo/auto-insurance/internal/model"
	"github.com/iliyamo/auto-insurance/internal/service"
)

// AdminEngine is the governance surface. Every call names the acting admin.
type AdminEngine interface {
	ChangeUserRole(ctx context.Context, targetID, actorID int64, newRole string) (*model.User, error)
	BlockUser(ctx context.Context, targetID, actorID int64) (*model.User, error)
	UnblockUser(ctx context.Context, targetID, actorID int64) (*model.User, error)
	ListAuditLogs(ctx context.Context, actorID int64, limit int) ([]model.AuditLogEntry, error)
	UpdateTariffSettings(ctx context.Context, actorID int64, payload map[string]any) ([]model.Setting, error)
}

// AdminHandler exposes /v1/admin.
type AdminHandler struct {
	Admin AdminEngine
}

func NewAdminHandler(admin AdminEngine) *AdminHandler {
	if admin == nil {
		panic("nil admin engine passed to NewAdminHandler")
	}
	return &AdminHandler{Admin: admin}
}

type actorBody struct {
	ActorUserID *int64 `json:"actor_user_id"`
	Role        string `json:"role"`
}

// ChangeRole handles PATCH /v1/admin/users/:id/role.
func (h *AdminHandler) ChangeRole(c echo.Context) error {
	return h.userAction(c, func(ctx context.Context, target, actor int64, body actorBody) (*model.User, error) {
		return h.Admin.ChangeUserRole(ctx, target, actor, body.Role)
	})
}

// Block handles PATCH /v1/admin/users/:id/block.
func (h *AdminHandler) Block(c echo.Context) error {
	return h.userAction(c, func(ctx context.Context, target, actor int64, _ actorBody) (*model.User, error) {
		return h.Admin.BlockUser(ctx, target, actor)
	})
}

// Unblock handles PATCH /v1/admin/users/:id/unblock.
func (h *AdminHandler) Unblock(c echo.Context) error {
	return h.userAction(c, func(ctx context.Context, target, actor int64, _ actorBody) (*model.User, error) {
		return h.Admin.UnblockUser(ctx, target, actor)
	})
}

func (h *AdminHandler) userAction(c echo.Context, act func(context.Context, int64, int64, actorBody) (*model.User, error)) error {
	target, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var body actorBody
	if err := bind(c, &body); err != nil {
		return respondError(c, err)
	}
	actor, err := requireActor(body.ActorUserID, "actor_user_id")
	if err != nil {
		return respondError(c, err)
	}
	u, err := act(c.Request().Context(), target, actor, body)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

// AuditLogs handles GET /v1/admin/audit-logs?actor_user_id=N&limit=M.
func (h *AdminHandler) AuditLogs(c echo.Context) error {
	actor, err := queryInt(c, "actor_user_id", 0)
	if err != nil {
		return respondError(c, err)
	}
	if actor <= 0 {
		return respondError(c, apperr.MissingField("actor_user_id is required"))
	}
	limit, err := queryInt(c, "limit", service.DefaultAuditLimit)
	if err != nil {
		return respondError(c, err)
	}
	entries, err := h.Admin.ListAuditLogs(c.Request().Context(), int64(actor), limit)
	if err != nil {
		return respondError(c, err)
	}
	if entries == nil {
		entries = []model.AuditLogEntry{}
	}
	return c.JSON(http.StatusOK, entries)
}

// UpdateTariffs handles PATCH /v1/admin/settings/tariffs. The body holds
// actor_user_id plus any of impactSpeedThreshold, cascoCoeff, oscpvCoeff.
func (h *AdminHandler) UpdateTariffs(c echo.Context) error {
	payload := map[string]any{}
	dec := json.NewDecoder(c.Request().Body)
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return respondError(c, apperr.InvalidInput("invalid request body"))
	}
	var actorID *int64
	if n, ok := payload["actor_user_id"].(json.Number); ok {
		if v, err := n.Int64(); err == nil {
			actorID = &v
		}
	}
	actor, err := requireActor(actorID, "actor_user_id")
	if err != nil {
		return respondError(c, err)
	}
	delete(payload, "actor_user_id")

	updated, err := h.Admin.UpdateTariffSettings(c.Request().Context(), actor, payload)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "tariffs updated", "updated": updated})
}
