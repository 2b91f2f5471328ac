package api

import (
	"net/http"

	"Lenxys/internal/domain/models"
	xhttp "Lenxys/pkg/http"
	applogger "Lenxys/pkg/logger"

	"github.com/labstack/echo/v4"
)

// AdminHandler exposes the maintenance endpoints used by the training pipeline
// and report jobs.
type AdminHandler struct {
	features FeatureService
	models   ModelCache
	reports  ReportService
	l        *applogger.Logger
}

func NewAdminHandler(features FeatureService, cache ModelCache, reports ReportService, l *applogger.Logger) *AdminHandler {
	if l == nil {
		l = applogger.Nop()
	}
	return &AdminHandler{features: features, models: cache, reports: reports, l: l}
}

func (h *AdminHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/features/generate", h.GenerateFeatures)
	g.POST("/models/invalidate", h.InvalidateModels)
	g.GET("/reports/daily", h.DailyReport)
}

func (h *AdminHandler) GenerateFeatures(c echo.Context) error {
	req := &models.GenerateFeaturesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	n, err := h.features.Generate(c.Request().Context(), req.Symbol, req.Interval, req.Limit)
	if err != nil {
		return fail(c, h.l, "generate features", err)
	}
	return xhttp.SuccessResponse(c, map[string]int{"count": n})
}

// InvalidateModels drops one loaded model, or all of them for an empty id.
func (h *AdminHandler) InvalidateModels(c echo.Context) error {
	req := &models.InvalidateModelsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if req.ModelID == "" {
		h.models.Reset()
	} else {
		h.models.Invalidate(req.ModelID)
	}
	h.l.Info("model cache invalidated", applogger.String("model_id", req.ModelID))
	return xhttp.DataResponse(c, http.StatusOK, map[string]int{"cached": h.models.Len()})
}

func (h *AdminHandler) DailyReport(c echo.Context) error {
	req := &models.ReportRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	rep, path, err := h.reports.GenerateDaily(c.Request().Context(), req.Date)
	if err != nil {
		return fail(c, h.l, "daily report", err)
	}
	h.l.Info("daily report written", applogger.String("path", path))
	return xhttp.SuccessResponse(c, rep)
}
