package api

import (
	"Lenxys/internal/domain/models"
	"Lenxys/internal/usecase"
	xhttp "Lenxys/pkg/http"
	applogger "Lenxys/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ModelsHandler lists and registers ensemble candidates.
type ModelsHandler struct {
	models ModelService
	l      *applogger.Logger
}

func NewModelsHandler(svc ModelService, l *applogger.Logger) *ModelsHandler {
	if l == nil {
		l = applogger.Nop()
	}
	return &ModelsHandler{models: svc, l: l}
}

func (h *ModelsHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/models")
	g.GET("", h.ListModels)
	g.POST("", h.RegisterModel)
}

func (h *ModelsHandler) ListModels(c echo.Context) error {
	req := &models.ListModelsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	out, err := h.models.List(c.Request().Context(), req.Symbol, req.Horizon)
	if err != nil {
		return fail(c, h.l, "list models", err)
	}
	return xhttp.SuccessResponse(c, out)
}

func (h *ModelsHandler) RegisterModel(c echo.Context) error {
	req := &models.RegisterModelRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	m, err := h.models.Register(c.Request().Context(), usecase.RegisterModelParams{
		ModelID:        req.ModelID,
		Symbol:         req.Symbol,
		Horizon:        req.Horizon,
		FeatureColumns: req.FeatureColumns,
		TestRMSE:       req.TestRMSE,
		Intercept:      req.Intercept,
		Coefficients:   req.Coefficients,
	})
	if err != nil {
		return fail(c, h.l, "register model", err)
	}
	return xhttp.CreatedResponse(c, m)
}
