package server

import (
	"context"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/terrainnova/chatbot/internal/handlers"
)

type Server struct {
	echo *echo.Echo
	addr string
}

func NewServer(addr string, log *slog.Logger, pingHandler *handlers.PingHandler, healthHandler *handlers.HealthHandler, chatHandler *handlers.ChatHandler, webhookHandler *handlers.WebhookHandler, whatsappHandler *handlers.WhatsAppHandler, catalogHandler *handlers.CatalogHandler, documentsHandler *handlers.DocumentsHandler) *Server {
	if addr == "" {
		addr = ":3000"
	}
	if log == nil {
		log = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
			}
			if v.Error != nil {
				attrs = append(attrs, slog.Any("error", v.Error))
				log.Error("request", attrs...)
				return nil
			}
			log.Info("request", attrs...)
			return nil
		},
	}))

	if pingHandler != nil {
		pingHandler.Register(e)
	}
	if healthHandler != nil {
		healthHandler.Register(e)
	}
	if chatHandler != nil {
		chatHandler.Register(e)
	}
	if webhookHandler != nil {
		webhookHandler.Register(e)
	}
	if whatsappHandler != nil {
		whatsappHandler.Register(e)
	}
	if catalogHandler != nil {
		catalogHandler.Register(e)
	}
	if documentsHandler != nil {
		documentsHandler.Register(e)
	}

	return &Server{
		echo: e,
		addr: addr,
	}
}

func (s *Server) Start() error {
	return s.echo.Start(s.addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
