// Package router registers the HTTP routes of the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/auto-insurance/internal/handler"
)

// Handlers bundles every route handler.
type Handlers struct {
	Health    echo.HandlerFunc
	Claims    *handler.ClaimHandler
	Policies  *handler.PolicyHandler
	Telemetry *handler.TelemetryHandler
	Users     *handler.UserHandler
	Admin     *handler.AdminHandler
}

// RegisterRoutes maps every endpoint onto e. readCache wraps the read-heavy
// telemetry listing; pass nil to disable it.
func RegisterRoutes(e *echo.Echo, h Handlers, readCache echo.MiddlewareFunc) {
	e.GET("/healthz", h.Health)

	v1 := e.Group("/v1")

	claims := v1.Group("/claims")
	claims.POST("", h.Claims.Create)
	claims.GET("/:id", h.Claims.Get)
	claims.POST("/:id/register", h.Claims.Register)
	claims.POST("/:id/decision", h.Claims.Decide)
	claims.POST("/:id/pay", h.Claims.Pay)

	policies := v1.Group("/policies")
	policies.POST("", h.Policies.Create)
	policies.GET("/:id", h.Policies.Get)
	policies.POST("/:id/activate", h.Policies.Activate)
	v1.POST("/payments", h.Policies.RecordPayment)

	v1.POST("/telemetry", h.Telemetry.Create)
	var mw []echo.MiddlewareFunc
	if readCache != nil {
		mw = append(mw, readCache)
	}
	v1.GET("/vehicles/:id/telemetry", h.Telemetry.ListByVehicle, mw...)

	v1.POST("/users", h.Users.Create)
	v1.GET("/users/:id", h.Users.Get)

	// Governance: every handler requires actor_user_id and the Admin role is
	// checked by the engine.
	admin := v1.Group("/admin")
	admin.PATCH("/users/:id/role", h.Admin.ChangeRole)
	admin.PATCH("/users/:id/block", h.Admin.Block)
	admin.PATCH("/users/:id/unblock", h.Admin.Unblock)
	admin.GET("/audit-logs", h.Admin.AuditLogs)
	admin.PATCH("/settings/tariffs", h.Admin.UpdateTariffs)
}
