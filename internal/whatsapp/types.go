// Package whatsapp is the WhatsApp Business platform adapter: webhook
// verification, inbound envelope normalization and the Graph API client.
package whatsapp

// MessageType discriminates the inbound message variants this service
// understands.
type MessageType string

const (
	TypeText     MessageType = "text"
	TypeImage    MessageType = "image"
	TypeDocument MessageType = "document"
	TypeVoice    MessageType = "voice"
)

// Envelope is the raw webhook delivery payload. It is transient and consumed
// once by the normalizer.
type Envelope struct {
	Entry []Entry `json:"entry"`
}

type Entry struct {
	Changes []Change `json:"changes"`
}

type Change struct {
	Value Value `json:"value"`
}

type Value struct {
	Messages []RawMessage `json:"messages"`
	Contacts []RawContact `json:"contacts"`
}

// RawMessage is one platform message inside the envelope. Exactly one of the
// variant fields is populated, keyed by Type.
type RawMessage struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	Timestamp string    `json:"timestamp"`
	Type      string    `json:"type"`
	Text      *TextBody `json:"text,omitempty"`
	Image     *Media    `json:"image,omitempty"`
	Document  *Media    `json:"document,omitempty"`
	Voice     *Media    `json:"voice,omitempty"`
}

type TextBody struct {
	Body string `json:"body"`
}

type Media struct {
	ID       string `json:"id"`
	Caption  string `json:"caption,omitempty"`
	Filename string `json:"filename,omitempty"`
}

type RawContact struct {
	WAID    string  `json:"wa_id"`
	Profile Profile `json:"profile"`
}

type Profile struct {
	Name string `json:"name"`
}

// Payload carries the variant-specific fields of a normalized message;
// which fields are set follows the message type.
type Payload struct {
	Body     string `json:"body,omitempty"`
	Caption  string `json:"caption,omitempty"`
	Filename string `json:"filename,omitempty"`
	MediaID  string `json:"media_id,omitempty"`
}

// Contact is the sender's contact card attached to a delivery.
type Contact struct {
	Name string `json:"name"`
	WAID string `json:"wa_id"`
}

// Message is the canonical inbound event produced by the normalizer. It is
// created fresh per webhook delivery and not persisted by this service.
type Message struct {
	ID        string      `json:"id,omitempty"`
	From      string      `json:"from"`
	Timestamp string      `json:"timestamp"`
	Type      MessageType `json:"type"`
	Payload   Payload     `json:"payload"`
	Contact   *Contact    `json:"contact,omitempty"`
}

// Text returns the message body for text messages, empty otherwise.
func (m Message) Text() string {
	if m.Type == TypeText {
		return m.Payload.Body
	}
	return ""
}
