package api

import (
	models "SimTape/internal/domain/models"
	"SimTape/internal/usecase"
	xhttp "SimTape/pkg/http"
	xlogger "SimTape/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ScenarioEchoHandler controls the active scenario and simulation settings.
type ScenarioEchoHandler struct {
	logger    *xlogger.Logger
	scenarios *usecase.ScenarioUseCase
}

func NewScenarioEchoHandler(logger *xlogger.Logger, scenarios *usecase.ScenarioUseCase) *ScenarioEchoHandler {
	return &ScenarioEchoHandler{logger: logger, scenarios: scenarios}
}

func (h *ScenarioEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/scenario", h.Get)
	g.POST("/scenario", h.Apply)
	g.POST("/scenario/reset", h.Reset)
	g.GET("/presets", h.Presets)
	g.GET("/settings", h.Settings)
	g.PUT("/settings", h.UpdateSettings)
}

func (h *ScenarioEchoHandler) Get(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.scenarios.Active())
}

func (h *ScenarioEchoHandler) Apply(c echo.Context) error {
	req := &models.ApplyScenarioRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	cfg, err := h.scenarios.Apply(req)
	if err != nil {
		h.logger.Warn("scenario apply rejected", xlogger.Error(err))
		return xhttp.BadRequestResponse(c, err.Error())
	}
	return xhttp.SuccessResponse(c, cfg)
}

func (h *ScenarioEchoHandler) Reset(c echo.Context) error {
	cfg, err := h.scenarios.Reset()
	if err != nil {
		h.logger.Error("scenario reset error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, cfg)
}

func (h *ScenarioEchoHandler) Presets(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.scenarios.Presets())
}

func (h *ScenarioEchoHandler) Settings(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.scenarios.Settings())
}

func (h *ScenarioEchoHandler) UpdateSettings(c echo.Context) error {
	req := &models.UpdateSettingsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	settings, err := h.scenarios.UpdateSettings(req)
	if err != nil {
		return xhttp.BadRequestResponse(c, err.Error())
	}
	return xhttp.SuccessResponse(c, settings)
}
