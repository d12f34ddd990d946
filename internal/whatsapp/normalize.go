package whatsapp

import (
	"context"
	"log/slog"
)

// ReadMarker acknowledges an inbound message on the platform.
type ReadMarker interface {
	MarkAsRead(ctx context.Context, messageID string) error
}

// Normalizer converts a raw webhook envelope into one canonical Message.
type Normalizer struct {
	logger *slog.Logger
	marker ReadMarker
}

// NewNormalizer creates a normalizer. marker may be nil, in which case
// inbound messages are not acknowledged.
func NewNormalizer(log *slog.Logger, marker ReadMarker) *Normalizer {
	if log == nil {
		log = slog.Default()
	}
	return &Normalizer{
		logger: log.With(slog.String("service", "whatsapp_normalizer")),
		marker: marker,
	}
}

// Normalize walks entry[].changes[].value.messages[] defensively and returns
// the first message found, or ok=false when the envelope carries none.
//
// A delivery batch with N messages yields exactly one Message; the remaining
// N-1 are dropped. That matches the platform integration as deployed and is
// kept intentionally until batching semantics are renegotiated.
//
// When the extracted message carries an id, the normalizer fires a mark-as-read
// acknowledgement; its failure never aborts normalization.
func (n *Normalizer) Normalize(ctx context.Context, env Envelope) (Message, bool) {
	for _, entry := range env.Entry {
		for _, change := range entry.Changes {
			value := change.Value
			for _, raw := range value.Messages {
				msg := Message{
					ID:        raw.ID,
					From:      raw.From,
					Timestamp: raw.Timestamp,
					Type:      MessageType(raw.Type),
					Payload:   extractPayload(raw),
				}
				if len(value.Contacts) > 0 {
					first := value.Contacts[0]
					msg.Contact = &Contact{
						Name: first.Profile.Name,
						WAID: first.WAID,
					}
				}

				if msg.ID != "" && n.marker != nil {
					if err := n.marker.MarkAsRead(ctx, msg.ID); err != nil {
						n.logger.Debug("mark as read failed", slog.String("message_id", msg.ID), slog.Any("error", err))
					}
				}
				return msg, true
			}
		}
	}
	return Message{}, false
}

func extractPayload(raw RawMessage) Payload {
	switch MessageType(raw.Type) {
	case TypeText:
		if raw.Text != nil {
			return Payload{Body: raw.Text.Body}
		}
	case TypeImage:
		if raw.Image != nil {
			return Payload{Caption: raw.Image.Caption, MediaID: raw.Image.ID}
		}
	case TypeDocument:
		if raw.Document != nil {
			return Payload{Caption: raw.Document.Caption, Filename: raw.Document.Filename, MediaID: raw.Document.ID}
		}
	case TypeVoice:
		if raw.Voice != nil {
			return Payload{MediaID: raw.Voice.ID}
		}
	}
	return Payload{}
}
