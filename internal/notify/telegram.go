package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/openclaw/hr-agency-api/internal/lead"
	"github.com/openclaw/hr-agency-api/pkg/logging"
)

// TelegramNotifier sends leads (and delivery-failure alerts) as chat
// messages through the Telegram Bot API.
type TelegramNotifier struct {
	apiBase string
	token   string
	chatID  string
	client  *http.Client
	logger  *logging.Logger
}

// NewTelegramNotifier creates a Telegram notifier. Returns nil unless both
// the bot token and the chat id are configured.
func NewTelegramNotifier(apiBase, token, chatID string, client *http.Client, logger *logging.Logger) *TelegramNotifier {
	if token == "" || chatID == "" {
		return nil
	}
	if apiBase == "" {
		apiBase = "https://api.telegram.org"
	}
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &TelegramNotifier{
		apiBase: strings.TrimSuffix(apiBase, "/"),
		token:   token,
		chatID:  chatID,
		client:  client,
		logger:  logger,
	}
}

// Deliver sends the lead as a formatted chat message.
func (n *TelegramNotifier) Deliver(ctx context.Context, l lead.Lead) error {
	return n.sendMessage(ctx, leadText(l))
}

// AlertDeliveryFailure notifies the chat that the primary webhook delivery
// failed, including the upstream status when known. Callers treat this as
// best effort and never surface its outcome to the submitter.
func (n *TelegramNotifier) AlertDeliveryFailure(ctx context.Context, l lead.Lead, deliverErr error) error {
	status := "unknown"
	var de *DeliveryError
	if errors.As(deliverErr, &de) {
		status = fmt.Sprintf("%d", de.Status)
	}
	text := fmt.Sprintf("⚠️ Ошибка доставки лида в webhook\nstatus: %s\n%s", status, leadText(l))
	return n.sendMessage(ctx, text)
}

func (n *TelegramNotifier) sendMessage(ctx context.Context, text string) error {
	payload := map[string]string{
		"chat_id": n.chatID,
		"text":    text,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.apiBase, n.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("post telegram message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &DeliveryError{Channel: "telegram", Status: resp.StatusCode}
	}
	return nil
}

// leadText renders the multi-line operator summary the chat receives.
func leadText(l lead.Lead) string {
	return strings.Join([]string{
		"🔔 Новая заявка с сайта",
		"Имя: " + l.Name,
		"Контакт: " + l.Contact,
		"Источник: " + l.Source,
		"Время: " + l.CreatedAt,
	}, "\n")
}

var (
	_ lead.Notifier       = (*TelegramNotifier)(nil)
	_ lead.FailureAlerter = (*TelegramNotifier)(nil)
)
