package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/terrainnova/chatbot/internal/healthcheck"
)

type HealthHandler struct {
	logger   *slog.Logger
	registry *healthcheck.Registry
}

func NewHealthHandler(log *slog.Logger, registry *healthcheck.Registry) *HealthHandler {
	if log == nil {
		log = slog.Default()
	}
	return &HealthHandler{
		logger:   log.With(slog.String("handler", "health")),
		registry: registry,
	}
}

func (h *HealthHandler) Register(e *echo.Echo) {
	e.GET("/health", h.Health)
	e.HEAD("/health", h.HealthHead)
}

// Health probes every dependency and reports per-service status. The answer
// is always 200; "degraded" in the body is the operator signal.
func (h *HealthHandler) Health(c echo.Context) error {
	report := h.registry.Evaluate(c.Request().Context())
	if report.Status != healthcheck.StatusHealthy {
		h.logger.Warn("health degraded", slog.Any("services", report.Services))
	}
	return c.JSON(http.StatusOK, report)
}

func (h *HealthHandler) HealthHead(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}
