package api

import (
	"time"

	"Lenxys/internal/domain/models"
	domrepo "Lenxys/internal/domain/repository"
	"Lenxys/internal/service/metrics"
	"Lenxys/internal/usecase"
	xhttp "Lenxys/pkg/http"
	applogger "Lenxys/pkg/logger"

	"github.com/labstack/echo/v4"
)

type CandlesHandler struct {
	svc CandlesService
	l   *applogger.Logger
}

func NewCandlesHandler(svc CandlesService, l *applogger.Logger) *CandlesHandler {
	if l == nil {
		l = applogger.Nop()
	}
	metrics.Register()
	return &CandlesHandler{svc: svc, l: l}
}

func (h *CandlesHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/candles", h.GetCandles)
}

func (h *CandlesHandler) GetCandles(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.Observe("candles", start, c.Response().Status) }()

	req := &models.CandlesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	from, ferr := parseAt(req.From)
	to, terr := parseAt(req.To)
	if ferr != nil || terr != nil {
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_INVALID_TIMESTAMP", "from", "invalid from/to", 400))
	}
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_INVALID_RANGE", "from", "from must be <= to", 400))
	}
	res, err := h.svc.GetCandles(c.Request().Context(), usecase.GetCandlesParams{
		Symbol:    req.Symbol,
		From:      from,
		To:        to,
		Timeframe: domrepo.NormalizeTimeframe(req.TF),
		Limit:     req.Limit,
	})
	if err != nil {
		return fail(c, h.l, "candles", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, res)
}
