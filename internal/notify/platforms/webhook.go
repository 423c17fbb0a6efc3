package platforms

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

const (
	SignatureHeader = "X-Sweeps-Signature"
	EventHeader     = "X-Sweeps-Event"
)

// WebhookAdapter posts the raw event payload. With a secret, the body is
// signed with HMAC-SHA256 and sent as "sha256=<hex>".
type WebhookAdapter struct {
	client *HTTPClient
}

func NewWebhookAdapter(client *HTTPClient) *WebhookAdapter {
	return &WebhookAdapter{client: client}
}

func (a *WebhookAdapter) Name() string {
	return "webhook"
}

func (a *WebhookAdapter) Send(ctx context.Context, endpoint, secret string, msg Message) error {
	body, err := json.Marshal(msg.Payload)
	if err != nil {
		return err
	}
	headers := map[string]string{EventHeader: msg.EventType}
	if secret != "" {
		headers[SignatureHeader] = Sign(secret, body)
	}
	return a.client.PostJSON(ctx, endpoint, headers, json.RawMessage(body))
}

// Sign returns the signature header value for body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
