package handlers

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/terrainnova/chatbot/internal/docstore"
)

type stubDocStore struct {
	available bool
	docs      []docstore.Document
	results   []docstore.SearchResult
	lastTopK  int
}

func (s *stubDocStore) Available(context.Context) bool { return s.available }

func (s *stubDocStore) Upsert(_ context.Context, doc docstore.Document) error {
	s.docs = append(s.docs, doc)
	return nil
}

func (s *stubDocStore) Search(_ context.Context, _ string, topK int) ([]docstore.SearchResult, error) {
	s.lastTopK = topK
	return s.results, nil
}

func newDocumentsServer(store *stubDocStore) *echo.Echo {
	e := echo.New()
	NewDocumentsHandler(nil, store).Register(e)
	return e
}

func multipartUpload(t *testing.T, filename string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func TestUploadPDFRejectsNonPDF(t *testing.T) {
	t.Parallel()

	e := newDocumentsServer(&stubDocStore{available: true})

	body, contentType := multipartUpload(t, "notas.txt", []byte("texto plano"), map[string]string{"user_id": "u1"})
	req := httptest.NewRequest(http.MethodPost, "/upload-pdf", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestUploadPDFRejectsCorruptPDF(t *testing.T) {
	t.Parallel()

	e := newDocumentsServer(&stubDocStore{available: true})

	body, contentType := multipartUpload(t, "doc.pdf", []byte("%PDF-1.7 truncado"), map[string]string{"user_id": "u1"})
	req := httptest.NewRequest(http.MethodPost, "/upload-pdf", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestUploadPDFRequiresUserID(t *testing.T) {
	t.Parallel()

	e := newDocumentsServer(&stubDocStore{available: true})

	body, contentType := multipartUpload(t, "doc.pdf", []byte("%PDF-1.7"), nil)
	req := httptest.NewRequest(http.MethodPost, "/upload-pdf", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSearchDocuments(t *testing.T) {
	t.Parallel()

	store := &stubDocStore{
		available: true,
		results: []docstore.SearchResult{
			{DocID: "d1", Content: "manual de compostaje", Score: 0.91},
		},
	}
	e := newDocumentsServer(store)

	rec := postJSON(e, "/search-documents", `{"query": "compostaje", "top_k": 5}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if store.lastTopK != 5 {
		t.Fatalf("top_k not forwarded, got %d", store.lastTopK)
	}
}

func TestSearchDocumentsValidation(t *testing.T) {
	t.Parallel()

	e := newDocumentsServer(&stubDocStore{available: true})
	if rec := postJSON(e, "/search-documents", `{"query": "  "}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("blank query must be rejected, got %d", rec.Code)
	}
}

func TestSearchDocumentsUnavailable(t *testing.T) {
	t.Parallel()

	e := newDocumentsServer(&stubDocStore{available: false})
	if rec := postJSON(e, "/search-documents", `{"query": "compost"}`); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestUserDocumentsPlaceholder(t *testing.T) {
	t.Parallel()

	e := newDocumentsServer(&stubDocStore{available: true})
	rec := getPath(e, "/documents/u1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}

	e = newDocumentsServer(&stubDocStore{available: false})
	if rec := getPath(e, "/documents/u1"); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
