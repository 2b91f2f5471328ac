package api

import (
	"errors"

	domrepo "Lenxys/internal/domain/repository"
	domsvc "Lenxys/internal/domain/service"
	"Lenxys/internal/usecase"
	xhttp "Lenxys/pkg/http"
	applogger "Lenxys/pkg/logger"

	"github.com/labstack/echo/v4"
)

// toAppError maps usecase errors onto API errors.
func toAppError(err error) *xhttp.AppError {
	var appErr *xhttp.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case domsvc.IsForecastUnavailable(err):
		return xhttp.ForecastUnavailableError(err)
	case errors.Is(err, domrepo.ErrRunNotFound):
		return xhttp.NotFoundError(err.Error()).WithError(err)
	case errors.Is(err, usecase.ErrNoFeaturesGenerated):
		return xhttp.NewAppError("ERR_NO_FEATURES", "symbol", err.Error(), 404).WithError(err)
	case errors.Is(err, usecase.ErrNoSymbols), errors.Is(err, usecase.ErrUnknownStrategy),
		errors.Is(err, usecase.ErrInvalidDate), errors.Is(err, usecase.ErrInvalidModel):
		return xhttp.BadRequestError(err.Error()).WithError(err)
	default:
		return xhttp.InternalError("internal error").WithError(err)
	}
}

func fail(c echo.Context, l *applogger.Logger, op string, err error) error {
	appErr := toAppError(err)
	if appErr.Status >= 500 {
		l.Error(op+" failed", applogger.String("path", c.Path()), applogger.Error(err))
	} else {
		l.Debug(op+" rejected", applogger.String("code", appErr.Code), applogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}
