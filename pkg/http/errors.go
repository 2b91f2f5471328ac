package http

import (
	"errors"
	"fmt"
	"net/http"

	applogger "Lenxys/pkg/logger"

	"github.com/labstack/echo/v4"
)

// AppError is an error a handler returns to the client as-is.
type AppError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Field   string                 `json:"field,omitempty"`
	Params  map[string]interface{} `json:"params,omitempty"`
	Status  int                    `json:"-"`
	Err     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func NewAppError(code, field, message string, status int) *AppError {
	return &AppError{Code: code, Message: message, Field: field, Status: status}
}

// WithError attaches the cause. It is logged, never rendered.
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

func NotFoundError(message string) *AppError {
	return NewAppError("ERR_NOT_FOUND", "", message, http.StatusNotFound)
}

func BadRequestError(message string) *AppError {
	return NewAppError("ERR_BAD_REQUEST", "", message, http.StatusBadRequest)
}

func InternalError(message string) *AppError {
	return NewAppError("ERR_INTERNAL", "", message, http.StatusInternalServerError)
}

// ForecastUnavailableError reports a forecast that cannot be produced from
// the stored features and models.
func ForecastUnavailableError(err error) *AppError {
	return NewAppError("ERR_FORECAST_UNAVAILABLE", "", err.Error(), http.StatusNotFound).WithError(err)
}

// ErrorHandler renders errors that escape handlers through the API envelope.
func ErrorHandler(l *applogger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		var appErr *AppError
		var he *echo.HTTPError
		switch {
		case errors.As(err, &appErr):
			if appErr.Status >= http.StatusInternalServerError {
				l.Error("request failed", applogger.String("path", c.Path()), applogger.Error(err))
			}
			_ = AppErrorResponse(c, appErr)
		case errors.As(err, &he):
			_ = DataResponse(c, he.Code, fmt.Sprint(he.Message))
		default:
			l.Error("unhandled request error", applogger.String("path", c.Path()), applogger.Error(err))
			_ = InternalServerErrorResponse(c)
		}
	}
}
