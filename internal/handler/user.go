package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/auto-insurance/internal/model"
	"github.com/iliyamo/auto-insurance/internal/service"
)

type UserRegistry interface {
	Create(ctx context.Context, in service.CreateUserInput) (*model.User, error)
	Get(ctx context.Context, userID int64) (*model.User, error)
}

// UserHandler exposes /v1/users.
type UserHandler struct {
	Users UserRegistry
}

func NewUserHandler(users UserRegistry) *UserHandler {
	if users == nil {
		panic("nil user registry passed to NewUserHandler")
	}
	return &UserHandler{Users: users}
}

// Create handles POST /v1/users.
func (h *UserHandler) Create(c echo.Context) error {
	var in service.CreateUserInput
	if err := bind(c, &in); err != nil {
		return respondError(c, err)
	}
	u, err := h.Users.Create(c.Request().Context(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, u)
}

// Get handles GET /v1/users/:id.
func (h *UserHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	u, err := h.Users.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, u)
}
