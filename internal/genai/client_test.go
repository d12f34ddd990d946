package genai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/terrainnova/chatbot/internal/catalog"
	"github.com/terrainnova/chatbot/internal/contextstore"
)

type fakeCatalogReader struct {
	products []catalog.Product
	err      error
}

func (c *fakeCatalogReader) Products(context.Context) ([]catalog.Product, error) {
	return c.products, c.err
}

func (c *fakeCatalogReader) Categories(context.Context) ([]catalog.Category, error) {
	return nil, c.err
}

func TestGenerateReplyIncludesContextAndPrompt(t *testing.T) {
	t.Parallel()

	var got generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(generateResponse{
			Candidates: []candidate{{Content: content{Parts: []part{{Text: "¡Hola! "}, {Text: "¿En qué te ayudo?"}}}}},
		})
	}))
	t.Cleanup(srv.Close)

	prompts := NewPromptBuilder(nil, &fakeCatalogReader{})
	client := NewClient(nil, srv.URL, "key", "gemini-1.5-flash", "embedding-001", prompts)

	turns := []contextstore.Turn{
		{Role: contextstore.RoleUser, Content: "hola"},
		{Role: contextstore.RoleAssistant, Content: "buenas"},
	}
	reply, err := client.GenerateReply(context.Background(), "busco compost", turns)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if reply != "¡Hola! ¿En qué te ayudo?" {
		t.Fatalf("unexpected reply: %q", reply)
	}

	if len(got.Contents) != 3 {
		t.Fatalf("expected 2 context turns + 1 message, got %d contents", len(got.Contents))
	}
	if got.Contents[1].Role != "model" {
		t.Fatalf("assistant turns must map to the model role, got %q", got.Contents[1].Role)
	}
	last := got.Contents[2].Parts[0].Text
	if !strings.Contains(last, "TerraINNOVA") || !strings.Contains(last, "Usuario: busco compost") {
		t.Fatalf("final content must carry system prompt and message, got %q", last)
	}
}

func TestGenerateReplyContextWindow(t *testing.T) {
	t.Parallel()

	var got generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(generateResponse{
			Candidates: []candidate{{Content: content{Parts: []part{{Text: "ok"}}}}},
		})
	}))
	t.Cleanup(srv.Close)

	client := NewClient(nil, srv.URL, "key", "m", "e", NewPromptBuilder(nil, nil))

	var turns []contextstore.Turn
	for i := 0; i < 20; i++ {
		turns = append(turns, contextstore.Turn{Role: contextstore.RoleUser, Content: "x"})
	}
	if _, err := client.GenerateReply(context.Background(), "hola", turns); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(got.Contents) != contextWindow+1 {
		t.Fatalf("expected %d contents, got %d", contextWindow+1, len(got.Contents))
	}
}

func TestGenerateReplyUnconfigured(t *testing.T) {
	t.Parallel()

	client := NewClient(nil, "http://unused", "", "m", "e", NewPromptBuilder(nil, nil))
	reply, err := client.GenerateReply(context.Background(), "hola", nil)
	if err != nil {
		t.Fatalf("unconfigured client must not error: %v", err)
	}
	if !strings.Contains(reply, "fuera de servicio") {
		t.Fatalf("expected out-of-service notice, got %q", reply)
	}
}

func TestGenerateReplyAPIFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(nil, srv.URL, "key", "m", "e", NewPromptBuilder(nil, nil))
	if _, err := client.GenerateReply(context.Background(), "hola", nil); err == nil {
		t.Fatal("expected error on API failure")
	}
}

func TestEmbedZeroVectorFallback(t *testing.T) {
	t.Parallel()

	client := NewClient(nil, "http://unused", "", "m", "e", NewPromptBuilder(nil, nil))
	vec := client.Embed(context.Background(), "texto")
	if len(vec) != EmbeddingDimensions {
		t.Fatalf("expected %d dims, got %d", EmbeddingDimensions, len(vec))
	}
	for _, v := range vec {
		if v != 0 {
			t.Fatal("expected zero vector")
		}
	}
}

func TestEmbedReturnsValues(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var resp embedResponse
		resp.Embedding.Values = []float32{0.25, -0.5}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(nil, srv.URL, "key", "m", "e", NewPromptBuilder(nil, nil))
	vec := client.Embed(context.Background(), "texto")
	if len(vec) != 2 || vec[0] != 0.25 {
		t.Fatalf("unexpected vector: %v", vec)
	}
}

func TestSystemPromptCatalogDegradation(t *testing.T) {
	t.Parallel()

	b := NewPromptBuilder(nil, &fakeCatalogReader{err: errors.New("db down")})
	prompt := b.SystemPrompt(context.Background())
	if !strings.Contains(prompt, "consulta en tiempo real") {
		t.Fatal("expected catalog placeholder when database is down")
	}

	b = NewPromptBuilder(nil, &fakeCatalogReader{products: []catalog.Product{{Name: "Compost Premium", Price: 250, Stock: 3}}})
	prompt = b.SystemPrompt(context.Background())
	if !strings.Contains(prompt, "Compost Premium") {
		t.Fatal("expected live catalog in prompt")
	}
}
