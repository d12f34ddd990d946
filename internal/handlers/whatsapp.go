package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

type messageSender interface {
	Configured() bool
	SendText(ctx context.Context, to, body string) error
	SendMedia(ctx context.Context, to, mediaType, mediaURL, caption string) error
}

type SendMessageRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

type SendMediaRequest struct {
	To      string `json:"to"`
	Type    string `json:"media_type"`
	URL     string `json:"media_url"`
	Caption string `json:"caption"`
}

// WhatsAppHandler exposes manual outbound sends, used by operators and
// integration scripts rather than the conversational flow.
type WhatsAppHandler struct {
	logger *slog.Logger
	sender messageSender
}

func NewWhatsAppHandler(log *slog.Logger, sender messageSender) *WhatsAppHandler {
	if log == nil {
		log = slog.Default()
	}
	return &WhatsAppHandler{
		logger: log.With(slog.String("handler", "whatsapp")),
		sender: sender,
	}
}

func (h *WhatsAppHandler) Register(e *echo.Echo) {
	e.POST("/whatsapp/send-message", h.SendMessage)
	e.POST("/whatsapp/send-media", h.SendMedia)
}

func (h *WhatsAppHandler) SendMessage(c echo.Context) error {
	var req SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.To == "" || req.Message == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Los campos 'to' y 'message' son requeridos")
	}
	if !h.sender.Configured() {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "WhatsApp no está configurado")
	}

	if err := h.sender.SendText(c.Request().Context(), req.To, req.Message); err != nil {
		h.logger.Error("manual send failed", slog.String("to", req.To), slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Error enviando mensaje: "+err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "sent",
		"to":      req.To,
		"message": req.Message,
	})
}

func (h *WhatsAppHandler) SendMedia(c echo.Context) error {
	var req SendMediaRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.To == "" || req.Type == "" || req.URL == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Los campos 'to', 'media_type' y 'media_url' son requeridos")
	}
	switch req.Type {
	case "image", "video", "document":
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "media_type debe ser 'image', 'video' o 'document'")
	}
	if !h.sender.Configured() {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "WhatsApp no está configurado")
	}

	if err := h.sender.SendMedia(c.Request().Context(), req.To, req.Type, req.URL, req.Caption); err != nil {
		h.logger.Error("manual media send failed", slog.String("to", req.To), slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Error enviando media: "+err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status":     "sent",
		"to":         req.To,
		"media_type": req.Type,
		"media_url":  req.URL,
		"caption":    req.Caption,
	})
}
