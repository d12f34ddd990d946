// Package genai generates chat replies and embeddings through the Gemini
// REST API.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/terrainnova/chatbot/internal/contextstore"
)

// EmbeddingDimensions is the vector size of the embedding model.
const EmbeddingDimensions = 768

// maxEmbedRunes caps the text handed to the embedding endpoint.
const maxEmbedRunes = 8192

// contextWindow is how many stored turns are replayed into a generation.
const contextWindow = 10

const (
	fallbackUnconfigured = "⚠️ Disculpa, nuestro asistente está temporalmente fuera de servicio. Por favor, contáctanos directamente en terrainnova@gmail.com"
	fallbackEmptyReply   = "🤖 Disculpa, estoy procesando tu consulta. ¿Podrías reformular la pregunta? Si necesitas ayuda inmediata, contáctanos en terrainnova@gmail.com"
)

// Client calls the Gemini generateContent and embedContent endpoints.
type Client struct {
	logger     *slog.Logger
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	embedModel string
	prompts    *PromptBuilder
}

// NewClient creates a Gemini client. With no API key the client reports
// unconfigured and GenerateReply returns the out-of-service notice.
func NewClient(log *slog.Logger, baseURL, apiKey, model, embedModel string, prompts *PromptBuilder) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		logger:     log.With(slog.String("service", "genai")),
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		embedModel: embedModel,
		prompts:    prompts,
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// GenerateReply produces the assistant reply for a message, replaying up to
// the last ten stored context turns. API failures are returned as errors;
// an unconfigured client degrades to a friendly notice instead.
func (c *Client) GenerateReply(ctx context.Context, message string, turns []contextstore.Turn) (string, error) {
	if !c.Configured() {
		return fallbackUnconfigured, nil
	}

	system := c.prompts.SystemPrompt(ctx)

	if len(turns) > contextWindow {
		turns = turns[len(turns)-contextWindow:]
	}
	contents := make([]content, 0, len(turns)+1)
	for _, turn := range turns {
		role := "user"
		if turn.Role == contextstore.RoleAssistant {
			role = "model"
		}
		contents = append(contents, content{Role: role, Parts: []part{{Text: turn.Content}}})
	}
	contents = append(contents, content{
		Role:  "user",
		Parts: []part{{Text: system + "\n\nUsuario: " + message}},
	})

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	var resp generateResponse
	if err := c.post(ctx, url, generateRequest{Contents: contents}, &resp); err != nil {
		return "", fmt.Errorf("generate reply: %w", err)
	}

	var b strings.Builder
	if len(resp.Candidates) > 0 {
		for _, p := range resp.Candidates[0].Content.Parts {
			b.WriteString(p.Text)
		}
	}
	reply := strings.TrimSpace(b.String())
	if reply == "" {
		return fallbackEmptyReply, nil
	}
	return reply, nil
}

// Embed returns the embedding vector for a text, truncated to the model's
// input limit. Failures degrade to a zero vector so document ingestion can
// proceed without the embedding service.
func (c *Client) Embed(ctx context.Context, text string) []float32 {
	zero := make([]float32, EmbeddingDimensions)
	text = strings.TrimSpace(text)
	if text == "" || !c.Configured() {
		return zero
	}
	if runes := []rune(text); len(runes) > maxEmbedRunes {
		text = string(runes[:maxEmbedRunes])
	}

	url := fmt.Sprintf("%s/models/%s:embedContent?key=%s", c.baseURL, c.embedModel, c.apiKey)
	req := embedRequest{
		Model:   "models/" + c.embedModel,
		Content: content{Parts: []part{{Text: text}}},
	}
	var resp embedResponse
	if err := c.post(ctx, url, req, &resp); err != nil {
		c.logger.Warn("embedding failed, using zero vector", slog.Any("error", err))
		return zero
	}
	if len(resp.Embedding.Values) == 0 {
		return zero
	}
	return resp.Embedding.Values
}

func (c *Client) post(ctx context.Context, url string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gemini api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("gemini api status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
