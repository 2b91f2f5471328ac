package api

import (
	"time"

	"Lenxys/internal/domain/models"
	"Lenxys/internal/service/metrics"
	xhttp "Lenxys/pkg/http"
	applogger "Lenxys/pkg/logger"

	"github.com/labstack/echo/v4"
)

type ForecastHandler struct {
	svc ForecastService
	l   *applogger.Logger
}

func NewForecastHandler(svc ForecastService, l *applogger.Logger) *ForecastHandler {
	if l == nil {
		l = applogger.Nop()
	}
	metrics.Register()
	return &ForecastHandler{svc: svc, l: l}
}

func (h *ForecastHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/forecast")
	g.POST("", h.Forecast)
	g.GET("/batch", h.Batch)
	g.GET("/export", h.Export)
}

// parseAt parses an optional timestamp. Empty means now.
func parseAt(s string) (time.Time, *xhttp.AppError) {
	if s == "" {
		return time.Time{}, nil
	}
	t, ok := xhttp.ParseTime(s)
	if !ok {
		return time.Time{}, xhttp.NewAppError("ERR_INVALID_TIMESTAMP", "timestamp", "invalid timestamp", 400)
	}
	return t.UTC(), nil
}

func (h *ForecastHandler) Forecast(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.Observe("forecast", start, c.Response().Status) }()

	req := &models.ForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	at, perr := parseAt(req.Timestamp)
	if perr != nil {
		return xhttp.AppErrorResponse(c, perr)
	}
	res, err := h.svc.Forecast(c.Request().Context(), req.Symbol, req.Horizon, at)
	if err != nil {
		return fail(c, h.l, "forecast", err)
	}
	return xhttp.SuccessResponse(c, res)
}

// batchArgs binds the batch query. When ok is false the error response has
// already been written and err is the write result.
func (h *ForecastHandler) batchArgs(c echo.Context) (req *models.BatchForecastRequest, at time.Time, ok bool, err error) {
	req = &models.BatchForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return nil, time.Time{}, false, xhttp.BadRequestResponse(c, verr)
	}
	at, perr := parseAt(req.Timestamp)
	if perr != nil {
		return nil, time.Time{}, false, xhttp.AppErrorResponse(c, perr)
	}
	return req, at, true, nil
}

func (h *ForecastHandler) Batch(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.Observe("forecast_batch", start, c.Response().Status) }()

	req, at, ok, err := h.batchArgs(c)
	if !ok {
		return err
	}
	items, err := h.svc.Batch(c.Request().Context(), xhttp.SplitCSV(req.Symbols), req.Horizon, at)
	if err != nil {
		return fail(c, h.l, "forecast batch", err)
	}
	return xhttp.SuccessResponse(c, items)
}

func (h *ForecastHandler) Export(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.Observe("forecast_export", start, c.Response().Status) }()

	req, at, ok, err := h.batchArgs(c)
	if !ok {
		return err
	}
	b, err := h.svc.ExportCSV(c.Request().Context(), xhttp.SplitCSV(req.Symbols), req.Horizon, at)
	if err != nil {
		return fail(c, h.l, "forecast export", err)
	}
	return xhttp.CSVResponse(c, "forecasts_"+req.Horizon+".csv", b)
}
