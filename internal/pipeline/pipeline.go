package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/terrainnova/chatbot/internal/contextstore"
	"github.com/terrainnova/chatbot/internal/whatsapp"
)

// Stage names one step of the inbound conversation flow. Processing is
// strictly sequential; the Outcome records the last stage that completed.
type Stage string

const (
	StageReceived         Stage = "received"
	StageSignatureChecked Stage = "signature_checked"
	StageNormalized       Stage = "normalized"
	StageContextLoaded    Stage = "context_loaded"
	StageEnhanced         Stage = "enhanced"
	StageGenerated        Stage = "generated"
	StageContextSaved     Stage = "context_saved"
	StageDelivered        Stage = "delivered"
)

const (
	StatusDelivered = "delivered"
	StatusRejected  = "rejected"
	// StatusIgnored marks envelopes that carried nothing processable. This is
	// a normal terminal state, not a failure.
	StatusIgnored = "received_but_not_processed"
	StatusFailed  = "failed"
)

// ErrInvalidSignature rejects a webhook body whose HMAC does not match.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// Outcome reports where an inbound event ended up.
type Outcome struct {
	Stage  Stage  `json:"stage"`
	Status string `json:"status"`
	UserID string `json:"user_id,omitempty"`
	Reply  string `json:"reply,omitempty"`
}

// ContextStore persists and recalls per-user conversation turns.
type ContextStore interface {
	Get(ctx context.Context, userID string) []contextstore.Turn
	Save(ctx context.Context, userID, userText, assistantText string) error
}

// Verifier checks the webhook body signature.
type Verifier interface {
	VerifySignature(body []byte, header string) bool
}

// Normalizer flattens a webhook envelope into at most one message.
type Normalizer interface {
	Normalize(ctx context.Context, env whatsapp.Envelope) (whatsapp.Message, bool)
}

// Enhancer enriches user text with catalog intent blocks.
type Enhancer interface {
	Enhance(ctx context.Context, text string) string
}

// Generator produces the assistant reply.
type Generator interface {
	GenerateReply(ctx context.Context, message string, turns []contextstore.Turn) (string, error)
}

// Sender delivers the reply back to the user.
type Sender interface {
	SendText(ctx context.Context, to, body string) error
}

// Pipeline wires the webhook collaborators into one sequential flow.
type Pipeline struct {
	logger     *slog.Logger
	store      ContextStore
	verifier   Verifier
	normalizer Normalizer
	enhancer   Enhancer
	generator  Generator
	sender     Sender
}

func New(log *slog.Logger, store ContextStore, verifier Verifier, normalizer Normalizer, enhancer Enhancer, generator Generator, sender Sender) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		logger:     log.With(slog.String("service", "pipeline")),
		store:      store,
		verifier:   verifier,
		normalizer: normalizer,
		enhancer:   enhancer,
		generator:  generator,
		sender:     sender,
	}
}

// Process runs one webhook delivery end to end:
// verify, normalize, load context, enhance, generate, save, deliver.
//
// A signature mismatch returns ErrInvalidSignature. An envelope without a
// processable text message terminates with StatusIgnored and no error. A
// failed context save is logged and does not block delivery; generation and
// delivery failures are surfaced since no reply reaches the user otherwise.
func (p *Pipeline) Process(ctx context.Context, body []byte, signature string) (Outcome, error) {
	if !p.verifier.VerifySignature(body, signature) {
		p.logger.Warn("webhook signature rejected")
		return Outcome{Stage: StageSignatureChecked, Status: StatusRejected}, ErrInvalidSignature
	}

	var env whatsapp.Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		p.logger.Debug("webhook body not a message envelope", slog.Any("error", err))
		return Outcome{Stage: StageNormalized, Status: StatusIgnored}, nil
	}

	msg, ok := p.normalizer.Normalize(ctx, env)
	if !ok {
		return Outcome{Stage: StageNormalized, Status: StatusIgnored}, nil
	}
	text := msg.Text()
	if text == "" {
		p.logger.Debug("skipping non-text message",
			slog.String("type", string(msg.Type)),
			slog.String("from", msg.From))
		return Outcome{Stage: StageNormalized, Status: StatusIgnored, UserID: msg.From}, nil
	}

	turns := p.store.Get(ctx, msg.From)

	enhanced := p.enhancer.Enhance(ctx, text)

	reply, err := p.generator.GenerateReply(ctx, enhanced, turns)
	if err != nil {
		p.logger.Error("reply generation failed",
			slog.String("user_id", msg.From),
			slog.Any("error", err))
		return Outcome{Stage: StageEnhanced, Status: StatusFailed, UserID: msg.From}, err
	}

	// The stored turn keeps the user's original words, not the enhanced text.
	if err := p.store.Save(ctx, msg.From, text, reply); err != nil {
		p.logger.Warn("context save failed",
			slog.String("user_id", msg.From),
			slog.Any("error", err))
	}

	if err := p.sender.SendText(ctx, msg.From, reply); err != nil {
		p.logger.Error("reply delivery failed",
			slog.String("user_id", msg.From),
			slog.Any("error", err))
		return Outcome{Stage: StageContextSaved, Status: StatusFailed, UserID: msg.From, Reply: reply}, err
	}

	p.logger.Info("message processed",
		slog.String("user_id", msg.From),
		slog.Int("reply_length", len(reply)))
	return Outcome{Stage: StageDelivered, Status: StatusDelivered, UserID: msg.From, Reply: reply}, nil
}
