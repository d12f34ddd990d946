package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/terrainnova/chatbot/internal/pipeline"
)

const webhookMaxBodyBytes int64 = 1 << 20 // 1 MiB

type tokenVerifier interface {
	VerifyToken(mode, token, challenge string) (string, bool)
}

type webhookProcessor interface {
	Process(ctx context.Context, body []byte, signature string) (pipeline.Outcome, error)
}

// WebhookHandler receives WhatsApp Business webhook callbacks. The same
// verify/receive pair is mounted on /webhook and /webhook/whatsapp since Meta
// configurations in the wild point at either path.
type WebhookHandler struct {
	logger    *slog.Logger
	verifier  tokenVerifier
	processor webhookProcessor
}

func NewWebhookHandler(log *slog.Logger, verifier tokenVerifier, processor webhookProcessor) *WebhookHandler {
	if log == nil {
		log = slog.Default()
	}
	return &WebhookHandler{
		logger:    log.With(slog.String("handler", "webhook")),
		verifier:  verifier,
		processor: processor,
	}
}

func (h *WebhookHandler) Register(e *echo.Echo) {
	e.GET("/webhook", h.Verify)
	e.POST("/webhook", h.Receive)
	e.GET("/webhook/whatsapp", h.Verify)
	e.POST("/webhook/whatsapp", h.Receive)
}

// Verify answers the Meta subscription handshake. The challenge is echoed
// back as a bare JSON integer, which is what the Graph API expects.
func (h *WebhookHandler) Verify(c echo.Context) error {
	mode := c.QueryParam("hub.mode")
	token := c.QueryParam("hub.verify_token")
	challenge := c.QueryParam("hub.challenge")

	echoed, ok := h.verifier.VerifyToken(mode, token, challenge)
	if !ok {
		h.logger.Warn("webhook verification rejected", slog.String("mode", mode))
		return echo.NewHTTPError(http.StatusForbidden, "Forbidden")
	}
	n, err := strconv.Atoi(echoed)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "hub.challenge must be numeric")
	}
	h.logger.Info("webhook verified")
	return c.JSON(http.StatusOK, n)
}

func (h *WebhookHandler) Receive(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, webhookMaxBodyBytes+1))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("read body: %v", err))
	}
	if int64(len(body)) > webhookMaxBodyBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, fmt.Sprintf("payload too large: max %d bytes", webhookMaxBodyBytes))
	}

	signature := c.Request().Header.Get("X-Hub-Signature-256")
	outcome, err := h.processor.Process(c.Request().Context(), body, signature)
	if err != nil {
		if errors.Is(err, pipeline.ErrInvalidSignature) {
			return echo.NewHTTPError(http.StatusForbidden, "Invalid signature")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, outcome)
}
