package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	xhttp "Lenxys/pkg/http"

	"github.com/labstack/echo/v4"
)

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

type StatusHandler struct {
	env     string
	started time.Time
	checks  map[string]HealthCheck
}

func NewStatusHandler(env string, checks map[string]HealthCheck) *StatusHandler {
	return &StatusHandler{env: env, started: time.Now(), checks: checks}
}

func (h *StatusHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/status", h.Status)
}

type statusResponse struct {
	Status     string            `json:"status"`
	Env        string            `json:"env"`
	Uptime     string            `json:"uptime"`
	Components map[string]string `json:"components,omitempty"`
}

// Status reports "ok", or "degraded" with a 503 when any check fails.
func (h *StatusHandler) Status(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	res := statusResponse{Status: "ok", Env: h.env, Uptime: time.Since(h.started).Truncate(time.Second).String()}
	names := make([]string, 0, len(h.checks))
	for n := range h.checks {
		names = append(names, n)
	}
	sort.Strings(names)
	if len(names) > 0 {
		res.Components = make(map[string]string, len(names))
	}
	for _, n := range names {
		if err := h.checks[n](ctx); err != nil {
			res.Components[n] = err.Error()
			res.Status = "degraded"
			continue
		}
		res.Components[n] = "ok"
	}
	if res.Status != "ok" {
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, res)
	}
	return xhttp.SuccessResponse(c, res)
}
