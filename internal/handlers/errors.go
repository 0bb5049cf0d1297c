package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/diwanhq/murasalat/backend/internal/engine"
)

// engineHTTPError maps engine error types onto HTTP statuses. Rejections
// always carry why the operation failed and what would have been valid.
func engineHTTPError(err error) error {
	var (
		validation *engine.ValidationError
		notFound   *engine.NotFoundError
		forbidden  *engine.ForbiddenError
		transition *engine.InvalidTransitionError
		deptsGone  *engine.DepartmentNotFoundError
		conflict   *engine.ConflictError
	)
	switch {
	case errors.As(err, &validation):
		return echo.NewHTTPError(http.StatusBadRequest, validation.Error())
	case errors.As(err, &notFound):
		return echo.NewHTTPError(http.StatusNotFound, notFound.Error())
	case errors.As(err, &forbidden):
		return echo.NewHTTPError(http.StatusForbidden, forbidden.Error())
	case errors.As(err, &transition):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, echo.Map{
			"message": transition.Error(),
			"current": transition.Current,
			"allowed": transition.Allowed,
		})
	case errors.As(err, &deptsGone):
		return echo.NewHTTPError(http.StatusNotFound, echo.Map{
			"message": deptsGone.Error(),
			"missing": deptsGone.Missing,
		})
	case errors.As(err, &conflict):
		return echo.NewHTTPError(http.StatusConflict, conflict.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
