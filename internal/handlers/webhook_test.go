package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/terrainnova/chatbot/internal/contextstore"
	"github.com/terrainnova/chatbot/internal/intent"
	"github.com/terrainnova/chatbot/internal/pipeline"
	"github.com/terrainnova/chatbot/internal/whatsapp"
)

const (
	testAppSecret   = "app-secret"
	testVerifyToken = "verify-token"
)

const inboundTextBody = `{
  "entry": [{
    "changes": [{
      "value": {
        "messages": [{
          "id": "wamid.abc",
          "from": "+59177777777",
          "timestamp": "1700000000",
          "type": "text",
          "text": {"body": "hola"}
        }],
        "contacts": [{"profile": {"name": "Ana"}, "wa_id": "59177777777"}]
      }
    }]
  }]
}`

func signBody(body string) string {
	mac := hmac.New(sha256.New, []byte(testAppSecret))
	mac.Write([]byte(body))
	return whatsapp.SignaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

type stubGenerator struct{ reply string }

func (g *stubGenerator) GenerateReply(context.Context, string, []contextstore.Turn) (string, error) {
	return g.reply, nil
}

type recordingSender struct {
	to   []string
	sent []string
}

func (s *recordingSender) SendText(_ context.Context, to, body string) error {
	s.to = append(s.to, to)
	s.sent = append(s.sent, body)
	return nil
}

func (s *recordingSender) MarkAsRead(context.Context, string) error { return nil }

func newWebhookServer(t *testing.T, store *contextstore.Service, sender *recordingSender) *echo.Echo {
	t.Helper()
	verifier := whatsapp.NewVerifier(nil, testAppSecret, testVerifyToken)
	normalizer := whatsapp.NewNormalizer(nil, sender)
	enhancer := intent.NewEnhancer(nil, nil)
	p := pipeline.New(nil, store, verifier, normalizer, enhancer, &stubGenerator{reply: "¡Hola Ana! Bienvenida a TerraInnova."}, sender)

	e := echo.New()
	NewWebhookHandler(nil, verifier, p).Register(e)
	return e
}

func TestWebhookReceiveEndToEnd(t *testing.T) {
	t.Parallel()

	store := contextstore.NewService(nil, nil)
	sender := &recordingSender{}
	e := newWebhookServer(t, store, sender)

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(inboundTextBody))
	req.Header.Set("X-Hub-Signature-256", signBody(inboundTextBody))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), string(pipeline.StageDelivered)) {
		t.Fatalf("expected delivered outcome, got %s", rec.Body.String())
	}

	turns := store.Get(context.Background(), "+59177777777")
	if len(turns) != 2 {
		t.Fatalf("expected 2 stored turns, got %d", len(turns))
	}
	if turns[0].Role != contextstore.RoleUser || turns[0].Content != "hola" {
		t.Fatalf("unexpected user turn: %+v", turns[0])
	}

	if len(sender.sent) != 1 {
		t.Fatalf("expected exactly one delivery, got %d", len(sender.sent))
	}
	if sender.to[0] != "+59177777777" {
		t.Fatalf("delivered to wrong number: %s", sender.to[0])
	}
}

func TestWebhookReceiveInvalidSignature(t *testing.T) {
	t.Parallel()

	store := contextstore.NewService(nil, nil)
	sender := &recordingSender{}
	e := newWebhookServer(t, store, sender)

	req := httptest.NewRequest(http.MethodPost, "/webhook/whatsapp", strings.NewReader(inboundTextBody))
	req.Header.Set("X-Hub-Signature-256", "sha256=0000")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if len(sender.sent) != 0 {
		t.Fatal("rejected webhook must not deliver")
	}
	if turns := store.Get(context.Background(), "+59177777777"); len(turns) != 0 {
		t.Fatal("rejected webhook must not store context")
	}
}

func TestWebhookReceiveNonMessageEvent(t *testing.T) {
	t.Parallel()

	store := contextstore.NewService(nil, nil)
	sender := &recordingSender{}
	e := newWebhookServer(t, store, sender)

	body := `{"entry": [{"changes": [{"value": {"statuses": [{"id": "wamid.x", "status": "read"}]}}]}]}`
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("X-Hub-Signature-256", signBody(body))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), pipeline.StatusIgnored) {
		t.Fatalf("expected ignored outcome, got %s", rec.Body.String())
	}
}

func TestWebhookVerify(t *testing.T) {
	t.Parallel()

	e := newWebhookServer(t, contextstore.NewService(nil, nil), &recordingSender{})

	cases := []struct {
		name   string
		query  string
		status int
		body   string
	}{
		{"valid", "hub.mode=subscribe&hub.verify_token=verify-token&hub.challenge=123456", http.StatusOK, "123456"},
		{"wrong token", "hub.mode=subscribe&hub.verify_token=nope&hub.challenge=123456", http.StatusForbidden, ""},
		{"wrong mode", "hub.mode=unsubscribe&hub.verify_token=verify-token&hub.challenge=123456", http.StatusForbidden, ""},
		{"non numeric challenge", "hub.mode=subscribe&hub.verify_token=verify-token&hub.challenge=abc", http.StatusBadRequest, ""},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/webhook?"+tc.query, nil)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
			if tc.body != "" && strings.TrimSpace(rec.Body.String()) != tc.body {
				t.Fatalf("expected challenge %q, got %q", tc.body, rec.Body.String())
			}
		})
	}
}

func TestWebhookReceiveBodyTooLarge(t *testing.T) {
	t.Parallel()

	e := newWebhookServer(t, contextstore.NewService(nil, nil), &recordingSender{})

	body := strings.Repeat("a", int(webhookMaxBodyBytes)+1)
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
}
