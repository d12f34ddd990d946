package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/terrainnova/chatbot/internal/contextstore"
)

type memoryChatStore struct {
	turns    map[string][]contextstore.Turn
	clearErr error
}

func newMemoryChatStore() *memoryChatStore {
	return &memoryChatStore{turns: map[string][]contextstore.Turn{}}
}

func (s *memoryChatStore) Get(_ context.Context, userID string) []contextstore.Turn {
	return s.turns[userID]
}

func (s *memoryChatStore) Save(_ context.Context, userID, userText, assistantText string) error {
	s.turns[userID] = append(s.turns[userID],
		contextstore.NewTurn(contextstore.RoleUser, userText),
		contextstore.NewTurn(contextstore.RoleAssistant, assistantText))
	return nil
}

func (s *memoryChatStore) Clear(_ context.Context, userID string) error {
	if s.clearErr != nil {
		return s.clearErr
	}
	delete(s.turns, userID)
	return nil
}

type echoEnhancer struct{}

func (echoEnhancer) Enhance(_ context.Context, text string) string { return text }

type fixedGenerator struct {
	reply string
	err   error
}

func (g *fixedGenerator) GenerateReply(context.Context, string, []contextstore.Turn) (string, error) {
	return g.reply, g.err
}

type fixedImageResolver struct{ url string }

func (r *fixedImageResolver) ResolveImage(context.Context, string, string) string { return r.url }

func newChatServer(store *memoryChatStore, gen *fixedGenerator, images imageResolver) *echo.Echo {
	e := echo.New()
	NewChatHandler(nil, store, echoEnhancer{}, gen, images).Register(e)
	return e
}

func postJSON(e *echo.Echo, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestChatSuccess(t *testing.T) {
	t.Parallel()

	store := newMemoryChatStore()
	e := newChatServer(store, &fixedGenerator{reply: "Tenemos compost premium."}, &fixedImageResolver{url: "https://img/compost.jpg"})

	rec := postJSON(e, "/chat", `{"message": "busco compost", "user_id": "u1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}

	var resp ChatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Reply != "Tenemos compost premium." || resp.UserID != "u1" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.ContextLength != 2 {
		t.Fatalf("fresh user context_length must be 2, got %d", resp.ContextLength)
	}
	if resp.ImageURL != "https://img/compost.jpg" {
		t.Fatalf("unexpected image url: %q", resp.ImageURL)
	}
	if len(store.turns["u1"]) != 2 {
		t.Fatalf("expected 2 saved turns, got %d", len(store.turns["u1"]))
	}
}

func TestChatRejectsBlankMessage(t *testing.T) {
	t.Parallel()

	store := newMemoryChatStore()
	e := newChatServer(store, &fixedGenerator{reply: "x"}, nil)

	for _, body := range []string{
		`{"message": "", "user_id": "u1"}`,
		`{"message": "   ", "user_id": "u1"}`,
	} {
		rec := postJSON(e, "/chat", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %s, got %d", body, rec.Code)
		}
	}
	if len(store.turns) != 0 {
		t.Fatal("rejected request must not touch the store")
	}
}

func TestChatGenerationFailure(t *testing.T) {
	t.Parallel()

	store := newMemoryChatStore()
	e := newChatServer(store, &fixedGenerator{err: errors.New("api down")}, nil)

	rec := postJSON(e, "/chat", `{"message": "hola", "user_id": "u1"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if len(store.turns["u1"]) != 0 {
		t.Fatal("failed generation must not save context")
	}
}

func TestChatContextRoundTrip(t *testing.T) {
	t.Parallel()

	store := newMemoryChatStore()
	e := newChatServer(store, &fixedGenerator{reply: "respuesta"}, nil)

	if rec := postJSON(e, "/chat", `{"message": "hola", "user_id": "u9"}`); rec.Code != http.StatusOK {
		t.Fatalf("chat failed: %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/chat/u9/context", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("get context: %d", rec.Code)
	}
	var got struct {
		UserID       string              `json:"user_id"`
		Context      []contextstore.Turn `json:"context"`
		MessageCount int                 `json:"message_count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.MessageCount != 2 || len(got.Context) != 2 {
		t.Fatalf("expected 2 turns, got %+v", got)
	}

	req = httptest.NewRequest(http.MethodDelete, "/chat/u9/context", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("clear context: %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/chat/u9/context", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.MessageCount != 0 {
		t.Fatalf("expected empty context after clear, got %d", got.MessageCount)
	}
}

func TestChatClearFailure(t *testing.T) {
	t.Parallel()

	store := newMemoryChatStore()
	store.clearErr = errors.New("redis down")
	e := newChatServer(store, &fixedGenerator{reply: "x"}, nil)

	req := httptest.NewRequest(http.MethodDelete, "/chat/u1/context", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
