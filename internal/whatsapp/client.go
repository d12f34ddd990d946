package whatsapp

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
)

const messagingProduct = "whatsapp"

// Client talks to the WhatsApp Business Graph API for one phone number.
type Client struct {
	logger        *slog.Logger
	httpClient    *http.Client
	baseURL       string
	accessToken   string
	phoneNumberID string
}

// NewClient creates a Graph API client. With missing credentials the client
// constructs fine but reports unconfigured and refuses to send.
func NewClient(log *slog.Logger, baseURL, accessToken, phoneNumberID string) *Client {
	if log == nil {
		log = slog.Default()
	}
	baseURL = strings.TrimRight(baseURL, "/")
	return &Client{
		logger:        log.With(slog.String("service", "whatsapp_client")),
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		baseURL:       baseURL,
		accessToken:   accessToken,
		phoneNumberID: phoneNumberID,
	}
}

// Configured reports whether the client has credentials to reach the API.
func (c *Client) Configured() bool {
	return c.accessToken != "" && c.phoneNumberID != ""
}

// SendText delivers a plain text message.
func (c *Client) SendText(ctx context.Context, to, body string) error {
	payload := map[string]any{
		"messaging_product": messagingProduct,
		"to":                to,
		"type":              "text",
		"text":              map[string]string{"body": body},
	}
	return c.post(ctx, payload)
}

// SendMedia delivers an image, video or document by URL with an optional
// caption.
func (c *Client) SendMedia(ctx context.Context, to, mediaType, mediaURL, caption string) error {
	media := map[string]string{"link": mediaURL}
	if caption != "" {
		media["caption"] = caption
	}
	payload := map[string]any{
		"messaging_product": messagingProduct,
		"to":                to,
		"type":              mediaType,
		mediaType:           media,
	}
	return c.post(ctx, payload)
}

// SendTemplate delivers a pre-approved template message.
func (c *Client) SendTemplate(ctx context.Context, to, templateName, languageCode string) error {
	if languageCode == "" {
		languageCode = "es"
	}
	payload := map[string]any{
		"messaging_product": messagingProduct,
		"to":                to,
		"type":              "template",
		"template": map[string]any{
			"name":     templateName,
			"language": map[string]string{"code": languageCode},
		},
	}
	return c.post(ctx, payload)
}

// MarkAsRead acknowledges an inbound message.
func (c *Client) MarkAsRead(ctx context.Context, messageID string) error {
	payload := map[string]any{
		"messaging_product": messagingProduct,
		"status":            "read",
		"message_id":        messageID,
	}
	return c.post(ctx, payload)
}

func (c *Client) post(ctx context.Context, payload map[string]any) error {
	if !c.Configured() {
		return fmt.Errorf("whatsapp client is not configured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("whatsapp api status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return nil
}
