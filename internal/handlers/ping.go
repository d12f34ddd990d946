package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

type PingHandler struct {
	logger *slog.Logger
}

func NewPingHandler(log *slog.Logger) *PingHandler {
	if log == nil {
		log = slog.Default()
	}
	return &PingHandler{logger: log.With(slog.String("handler", "ping"))}
}

func (h *PingHandler) Register(e *echo.Echo) {
	e.GET("/", h.Root)
	e.GET("/ping", h.Ping)
}

// Root announces the service and its feature set.
func (h *PingHandler) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"message":  "TerraInnova AI Chatbot Microservice",
		"version":  "1.0.0",
		"status":   "running",
		"features": []string{"chat", "pdf_processing", "semantic_search", "whatsapp_webhook"},
	})
}

func (h *PingHandler) Ping(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}
