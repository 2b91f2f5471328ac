package api

import (
	"time"

	"Lenxys/internal/domain/models"
	"Lenxys/internal/service/metrics"
	"Lenxys/internal/usecase"
	xhttp "Lenxys/pkg/http"
	applogger "Lenxys/pkg/logger"

	"github.com/labstack/echo/v4"
)

type RunsHandler struct {
	svc SimulationService
	l   *applogger.Logger
}

func NewRunsHandler(svc SimulationService, l *applogger.Logger) *RunsHandler {
	if l == nil {
		l = applogger.Nop()
	}
	metrics.Register()
	return &RunsHandler{svc: svc, l: l}
}

func (h *RunsHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/run/sim")
	g.POST("", h.RunSim)
	g.GET("", h.ListRuns)
	g.GET("/:run_id", h.GetRun)
}

type runSimResponse struct {
	RunID   string             `json:"run_id"`
	Metrics map[string]float64 `json:"results"`
}

// RunSim runs a simulation synchronously and returns its id.
func (h *RunsHandler) RunSim(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.Observe("run_sim", start, c.Response().Status) }()

	req := &models.SimRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	run, err := h.svc.Run(c.Request().Context(), usecase.SimParams{
		Symbol:   req.Symbol,
		Interval: req.Interval,
		Strategy: req.Strategy,
		Horizon:  req.Horizon,
	})
	if err != nil {
		return fail(c, h.l, "run sim", err)
	}
	return xhttp.CreatedResponse(c, runSimResponse{RunID: run.RunID, Metrics: run.Metrics})
}

func (h *RunsHandler) GetRun(c echo.Context) error {
	run, err := h.svc.GetRun(c.Request().Context(), c.Param("run_id"))
	if err != nil {
		return fail(c, h.l, "get run", err)
	}
	return xhttp.SuccessResponse(c, run)
}

func (h *RunsHandler) ListRuns(c echo.Context) error {
	req := &models.ListRunsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	runs, err := h.svc.ListRuns(c.Request().Context(), req.Limit)
	if err != nil {
		return fail(c, h.l, "list runs", err)
	}
	return xhttp.ListResponse(c, runs, int64(len(runs)))
}
