package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/openclaw/hr-agency-api/internal/lead"
	"github.com/openclaw/hr-agency-api/pkg/logging"
)

// DeliveryError reports a non-success response from a downstream notifier.
type DeliveryError struct {
	Channel string
	Status  int
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%s delivery failed with status %d", e.Channel, e.Status)
}

// WebhookNotifier POSTs the lead as JSON to a configured receiver. Any
// 2xx response counts as delivered.
type WebhookNotifier struct {
	url    string
	client *http.Client
	logger *logging.Logger
}

// NewWebhookNotifier creates a webhook notifier. Returns nil when no URL is
// configured so callers can wire it straight into an optional slot.
func NewWebhookNotifier(url string, client *http.Client, logger *logging.Logger) *WebhookNotifier {
	if url == "" {
		return nil
	}
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &WebhookNotifier{url: url, client: client, logger: logger}
}

// Deliver sends the lead payload to the webhook receiver.
func (n *WebhookNotifier) Deliver(ctx context.Context, l lead.Lead) error {
	body, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("marshal lead payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("post lead to webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &DeliveryError{Channel: "webhook", Status: resp.StatusCode}
	}
	return nil
}

var _ lead.Notifier = (*WebhookNotifier)(nil)
