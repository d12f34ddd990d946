package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/terrainnova/chatbot/internal/docstore"
)

const uploadMaxBytes int64 = 10 << 20 // 10 MiB

type documentStore interface {
	Available(ctx context.Context) bool
	Upsert(ctx context.Context, doc docstore.Document) error
	Search(ctx context.Context, query string, topK int) ([]docstore.SearchResult, error)
}

// DocumentsHandler ingests PDFs into the vector store and serves semantic
// search over them.
type DocumentsHandler struct {
	logger *slog.Logger
	store  documentStore
}

func NewDocumentsHandler(log *slog.Logger, store documentStore) *DocumentsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &DocumentsHandler{
		logger: log.With(slog.String("handler", "documents")),
		store:  store,
	}
}

func (h *DocumentsHandler) Register(e *echo.Echo) {
	e.POST("/upload-pdf", h.UploadPDF)
	e.POST("/search-documents", h.SearchDocuments)
	e.GET("/documents/:user_id", h.UserDocuments)
}

func (h *DocumentsHandler) UploadPDF(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "El campo 'file' es requerido")
	}
	userID := c.FormValue("user_id")
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "El campo 'user_id' es requerido")
	}
	docName := c.FormValue("doc_name")
	if docName == "" {
		docName = fileHeader.Filename
	}

	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".pdf") {
		return echo.NewHTTPError(http.StatusBadRequest, "Solo se permiten archivos PDF")
	}
	if fileHeader.Size > uploadMaxBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "El archivo excede el tamaño máximo permitido")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "No se pudo leer el archivo")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, uploadMaxBytes+1))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "No se pudo leer el archivo")
	}
	if int64(len(data)) > uploadMaxBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "El archivo excede el tamaño máximo permitido")
	}
	if !docstore.ValidPDF(data) {
		return echo.NewHTTPError(http.StatusBadRequest, "El archivo no es un PDF válido")
	}

	text, err := docstore.ExtractText(data)
	if err != nil || strings.TrimSpace(text) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "No se pudo extraer texto del PDF")
	}
	info := docstore.PDFMetadata(data)

	ctx := c.Request().Context()
	docID := uuid.NewString()
	saved := false
	if h.store.Available(ctx) {
		err := h.store.Upsert(ctx, docstore.Document{
			ID:      docID,
			Content: text,
			Metadata: map[string]string{
				"user_id":  userID,
				"filename": fileHeader.Filename,
				"doc_name": docName,
				"pages":    strconv.Itoa(info.Pages),
			},
		})
		if err != nil {
			h.logger.Warn("document upsert failed", slog.String("doc_id", docID), slog.Any("error", err))
		}
		saved = err == nil
	}

	preview := text
	if len(preview) > 500 {
		preview = preview[:500] + "..."
	}
	return c.JSON(http.StatusOK, map[string]any{
		"doc_id":         docID,
		"filename":       fileHeader.Filename,
		"doc_name":       docName,
		"text_length":    len(text),
		"pages":          info.Pages,
		"extracted_text": preview,
		"qdrant_saved":   saved,
		"user_id":        userID,
	})
}

type SearchDocumentsRequest struct {
	Query string `json:"query" query:"query"`
	TopK  int    `json:"top_k" query:"top_k"`
}

func (h *DocumentsHandler) SearchDocuments(c echo.Context) error {
	var req SearchDocumentsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.Query) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "La consulta no puede estar vacía")
	}

	ctx := c.Request().Context()
	if !h.store.Available(ctx) {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Servicio de búsqueda no disponible")
	}

	results, err := h.store.Search(ctx, strings.TrimSpace(req.Query), req.TopK)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Error en búsqueda: "+err.Error())
	}
	if results == nil {
		results = []docstore.SearchResult{}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"query":         req.Query,
		"results":       results,
		"total_results": len(results),
	})
}

// UserDocuments lists documents uploaded by one user.
//
// TODO: filter points by the user_id payload field once the collection gains
// a payload index; until then the list is empty.
func (h *DocumentsHandler) UserDocuments(c echo.Context) error {
	userID := c.Param("user_id")
	if !h.store.Available(c.Request().Context()) {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Servicio de documentos no disponible")
	}
	return c.JSON(http.StatusOK, map[string]any{
		"user_id":   userID,
		"documents": []docstore.Document{},
		"message":   "Funcionalidad en desarrollo",
	})
}
