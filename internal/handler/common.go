package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/auto-insurance/internal/apperr"
)

// respondError renders err as {"error", "kind"} with the status of its kind.
// Internal failures are logged and their cause is not exposed.
func respondError(c echo.Context, err error) error {
	status := apperr.HTTPStatus(err)
	kind := apperr.KindOf(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
		msg = "internal error"
		var e *apperr.Error
		if errors.As(err, &e) && e.Message != "" {
			msg = e.Message
		}
	}
	return c.JSON(status, echo.Map{"error": msg, "kind": kind})
}

// pathID parses a positive integer path parameter.
func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.InvalidInput("invalid " + name)
	}
	return id, nil
}

// queryInt parses an optional integer query parameter.
func queryInt(c echo.Context, name string, def int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.InvalidInput("invalid " + name)
	}
	return n, nil
}

// bind decodes the request body, reporting malformed JSON as invalid input.
func bind(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return apperr.InvalidInput("invalid request body")
	}
	return nil
}

// requireActor checks that a caller supplied user id is present.
func requireActor(id *int64, field string) (int64, error) {
	if id == nil || *id <= 0 {
		return 0, apperr.MissingField(field + " is required")
	}
	return *id, nil
}
