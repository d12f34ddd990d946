package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/terrainnova/chatbot/internal/catalog"
)

type catalogReader interface {
	Healthy(ctx context.Context) bool
	Products(ctx context.Context) ([]catalog.Product, error)
	Search(ctx context.Context, term string) ([]catalog.Product, error)
	Categories(ctx context.Context) ([]catalog.Category, error)
}

// CatalogHandler serves the product catalog REST surface consumed by the
// storefront.
type CatalogHandler struct {
	logger  *slog.Logger
	catalog catalogReader
}

func NewCatalogHandler(log *slog.Logger, reader catalogReader) *CatalogHandler {
	if log == nil {
		log = slog.Default()
	}
	return &CatalogHandler{
		logger:  log.With(slog.String("handler", "catalog")),
		catalog: reader,
	}
}

func (h *CatalogHandler) Register(e *echo.Echo) {
	e.GET("/productos", h.Products)
	e.GET("/productos/buscar", h.SearchProducts)
	e.GET("/categorias", h.Categories)
}

func (h *CatalogHandler) Products(c echo.Context) error {
	ctx := c.Request().Context()
	if !h.catalog.Healthy(ctx) {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Servicio de base de datos no disponible")
	}
	products, err := h.catalog.Products(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Error obteniendo productos: "+err.Error())
	}
	if products == nil {
		products = []catalog.Product{}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"productos": products,
		"total":     len(products),
		"mensaje":   fmt.Sprintf("Se encontraron %d productos", len(products)),
	})
}

func (h *CatalogHandler) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()
	if !h.catalog.Healthy(ctx) {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Servicio de base de datos no disponible")
	}
	query := strings.TrimSpace(c.QueryParam("q"))
	if len([]rune(query)) < 2 {
		return echo.NewHTTPError(http.StatusBadRequest, "El término de búsqueda debe tener al menos 2 caracteres")
	}
	products, err := h.catalog.Search(ctx, query)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Error buscando productos: "+err.Error())
	}
	if products == nil {
		products = []catalog.Product{}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"productos": products,
		"total":     len(products),
		"consulta":  query,
		"mensaje":   fmt.Sprintf("Se encontraron %d productos para '%s'", len(products), query),
	})
}

func (h *CatalogHandler) Categories(c echo.Context) error {
	ctx := c.Request().Context()
	if !h.catalog.Healthy(ctx) {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Servicio de base de datos no disponible")
	}
	categories, err := h.catalog.Categories(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Error obteniendo categorías: "+err.Error())
	}
	if categories == nil {
		categories = []catalog.Category{}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"categorias": categories,
		"total":      len(categories),
		"mensaje":    fmt.Sprintf("Se encontraron %d categorías", len(categories)),
	})
}
