package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/terrainnova/chatbot/internal/contextstore"
)

type chatStore interface {
	Get(ctx context.Context, userID string) []contextstore.Turn
	Save(ctx context.Context, userID, userText, assistantText string) error
	Clear(ctx context.Context, userID string) error
}

type chatEnhancer interface {
	Enhance(ctx context.Context, text string) string
}

type chatGenerator interface {
	GenerateReply(ctx context.Context, message string, turns []contextstore.Turn) (string, error)
}

type imageResolver interface {
	ResolveImage(ctx context.Context, message, reply string) string
}

type ChatRequest struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

type ChatResponse struct {
	Reply         string `json:"reply"`
	UserID        string `json:"user_id"`
	ContextLength int    `json:"context_length"`
	ImageURL      string `json:"imagenUrl,omitempty"`
}

// ChatHandler serves the direct (non-webhook) chat API and the per-user
// context inspection endpoints.
type ChatHandler struct {
	logger    *slog.Logger
	store     chatStore
	enhancer  chatEnhancer
	generator chatGenerator
	images    imageResolver
}

func NewChatHandler(log *slog.Logger, store chatStore, enhancer chatEnhancer, generator chatGenerator, images imageResolver) *ChatHandler {
	if log == nil {
		log = slog.Default()
	}
	return &ChatHandler{
		logger:    log.With(slog.String("handler", "chat")),
		store:     store,
		enhancer:  enhancer,
		generator: generator,
		images:    images,
	}
}

func (h *ChatHandler) Register(e *echo.Echo) {
	e.POST("/chat", h.Chat)
	e.GET("/chat/:user_id/context", h.GetContext)
	e.DELETE("/chat/:user_id/context", h.ClearContext)
}

func (h *ChatHandler) Chat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.Message) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "El mensaje no puede estar vacío")
	}
	if req.UserID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id es requerido")
	}

	ctx := c.Request().Context()
	turns := h.store.Get(ctx, req.UserID)

	enhanced := req.Message
	if h.enhancer != nil {
		enhanced = h.enhancer.Enhance(ctx, req.Message)
	}

	reply, err := h.generator.GenerateReply(ctx, enhanced, turns)
	if err != nil {
		h.logger.Error("chat generation failed",
			slog.String("user_id", req.UserID),
			slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := h.store.Save(ctx, req.UserID, req.Message, reply); err != nil {
		h.logger.Warn("context save failed",
			slog.String("user_id", req.UserID),
			slog.Any("error", err))
	}

	resp := ChatResponse{
		Reply:         reply,
		UserID:        req.UserID,
		ContextLength: len(turns) + 2,
	}
	if h.images != nil {
		resp.ImageURL = h.images.ResolveImage(ctx, req.Message, reply)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *ChatHandler) GetContext(c echo.Context) error {
	userID := c.Param("user_id")
	turns := h.store.Get(c.Request().Context(), userID)
	if turns == nil {
		turns = []contextstore.Turn{}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"user_id":       userID,
		"context":       turns,
		"message_count": len(turns),
	})
}

func (h *ChatHandler) ClearContext(c echo.Context) error {
	userID := c.Param("user_id")
	if err := h.store.Clear(c.Request().Context(), userID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Error al limpiar el contexto")
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Contexto limpiado para el usuario " + userID,
	})
}
