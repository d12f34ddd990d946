package whatsapp

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"
)

// SignaturePrefix is the scheme tag WhatsApp prepends to the signature
// header value.
const SignaturePrefix = "sha256="

// SubscribeMode is the hub.mode value of a webhook verification request.
const SubscribeMode = "subscribe"

// Verifier validates webhook deliveries: HMAC body signatures on POST and
// the verify-token challenge handshake on GET.
type Verifier struct {
	logger      *slog.Logger
	appSecret   string
	verifyToken string
}

// NewVerifier creates a verifier. An empty appSecret leaves the verifier in
// open mode: every signature is accepted. That is insecure and only meant
// for local development, so it is logged loudly at construction.
func NewVerifier(log *slog.Logger, appSecret, verifyToken string) *Verifier {
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("service", "whatsapp_verifier"))
	if strings.TrimSpace(appSecret) == "" {
		log.Warn("no app secret configured, webhook signatures will not be verified")
	}
	return &Verifier{
		logger:      log,
		appSecret:   appSecret,
		verifyToken: verifyToken,
	}
}

// VerifySignature checks the X-Hub-Signature-256 header against the HMAC-SHA256
// of the raw body. With no app secret configured it accepts everything.
func (v *Verifier) VerifySignature(body []byte, header string) bool {
	if strings.TrimSpace(v.appSecret) == "" {
		return true
	}

	mac := hmac.New(sha256.New, []byte(v.appSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	got := strings.TrimPrefix(strings.TrimSpace(header), SignaturePrefix)
	if hmac.Equal([]byte(expected), []byte(got)) {
		return true
	}
	v.logger.Warn("webhook signature mismatch")
	return false
}

// VerifyToken handles the GET verification handshake. It returns the
// challenge to echo back and whether verification succeeded.
func (v *Verifier) VerifyToken(mode, token, challenge string) (string, bool) {
	if mode == SubscribeMode && token != "" && token == v.verifyToken {
		return challenge, true
	}
	v.logger.Warn("webhook token verification failed", slog.String("mode", mode))
	return "", false
}
