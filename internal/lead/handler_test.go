package lead

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclaw/hr-agency-api/pkg/logging"
)

type stubNotifier struct {
	calls []Lead
	err   error
}

func (s *stubNotifier) Deliver(_ context.Context, l Lead) error {
	s.calls = append(s.calls, l)
	return s.err
}

type stubAlerter struct {
	calls []Lead
	errs  []error
	err   error
}

func (s *stubAlerter) AlertDeliveryFailure(_ context.Context, l Lead, deliverErr error) error {
	s.calls = append(s.calls, l)
	s.errs = append(s.errs, deliverErr)
	return s.err
}

type stubVerifier struct {
	ok       bool
	err      error
	gotToken string
	gotIP    string
	calls    int
}

func (s *stubVerifier) Verify(_ context.Context, token, remoteIP string) (bool, error) {
	s.calls++
	s.gotToken = token
	s.gotIP = remoteIP
	return s.ok, s.err
}

type recordingLimiter struct {
	keys    []string
	allowed bool
	err     error
}

func (l *recordingLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.keys = append(l.keys, key)
	return l.allowed, l.err
}

func validBody() map[string]any {
	return map[string]any{
		"name":         "Иван Петров",
		"contact":      "a@b.co",
		"formOpenedAt": 1_000,
		"submittedAt":  10_000,
	}
}

func postLead(t *testing.T, h *Handler, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/lead", reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	var resp apiResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func newTestHandler(cfg HandlerConfig) *Handler {
	if cfg.Limiter == nil {
		cfg.Limiter = &recordingLimiter{allowed: true}
	}
	cfg.Logger = logging.Default()
	return NewHandler(cfg)
}

func TestSubmitDeliversViaWebhook(t *testing.T) {
	webhook := &stubNotifier{}
	h := newTestHandler(HandlerConfig{Webhook: webhook})

	body := validBody()
	body["name"] = "  Иван Петров  "
	body["contact"] = " a@b.co "
	w := postLead(t, h, body, nil)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.OK)
	assert.Empty(t, resp.Error)
	assert.Empty(t, resp.Warning)

	require.Len(t, webhook.calls, 1)
	delivered := webhook.calls[0]
	assert.Equal(t, "Иван Петров", delivered.Name)
	assert.Equal(t, "a@b.co", delivered.Contact)
	assert.Equal(t, "website", delivered.Source)
	_, err := time.Parse(time.RFC3339, delivered.CreatedAt)
	assert.NoError(t, err, "createdAt must be RFC3339")
}

func TestSubmitKeepsExplicitSource(t *testing.T) {
	webhook := &stubNotifier{}
	h := newTestHandler(HandlerConfig{Webhook: webhook})

	body := validBody()
	body["source"] = "hero-banner"
	w := postLead(t, h, body, nil)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, webhook.calls, 1)
	assert.Equal(t, "hero-banner", webhook.calls[0].Source)
}

func TestSubmitMethodNotAllowed(t *testing.T) {
	h := newTestHandler(HandlerConfig{})

	req := httptest.NewRequest(http.MethodGet, "/api/lead", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusMethodNotAllowed, w.Code)
	resp := decodeResponse(t, w)
	assert.False(t, resp.OK)
	assert.Equal(t, "Method not allowed", resp.Error)
}

func TestSubmitMalformedJSON(t *testing.T) {
	webhook := &stubNotifier{}
	h := newTestHandler(HandlerConfig{Webhook: webhook})

	w := postLead(t, h, "{not json", nil)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, webhook.calls)
}

func TestSubmitMissingFields(t *testing.T) {
	tests := []struct {
		name string
		body map[string]any
	}{
		{"empty body", map[string]any{}},
		{"whitespace name", map[string]any{"name": "   ", "contact": "a@b.co"}},
		{"missing contact", map[string]any{"name": "Иван"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			webhook := &stubNotifier{}
			h := newTestHandler(HandlerConfig{Webhook: webhook})

			w := postLead(t, h, tt.body, nil)

			require.Equal(t, http.StatusBadRequest, w.Code)
			resp := decodeResponse(t, w)
			assert.Equal(t, "name and contact are required", resp.Error)
			assert.Empty(t, webhook.calls)
		})
	}
}

func TestSubmitNameLength(t *testing.T) {
	webhook := &stubNotifier{}
	h := newTestHandler(HandlerConfig{Webhook: webhook})

	body := validBody()
	body["name"] = "И"
	w := postLead(t, h, body, nil)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid name length", decodeResponse(t, w).Error)

	body["name"] = strings.Repeat("я", 81)
	w = postLead(t, h, body, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, webhook.calls)
}

func TestSubmitContactFormat(t *testing.T) {
	webhook := &stubNotifier{}
	h := newTestHandler(HandlerConfig{Webhook: webhook})

	body := validBody()
	body["contact"] = "not-an-email"
	w := postLead(t, h, body, nil)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid contact format", decodeResponse(t, w).Error)
	assert.Empty(t, webhook.calls)
}

func TestSubmitHoneypotRejectsWithoutSideEffects(t *testing.T) {
	webhook := &stubNotifier{}
	limiter := &recordingLimiter{allowed: true}
	verifier := &stubVerifier{ok: true}
	h := newTestHandler(HandlerConfig{Webhook: webhook, Limiter: limiter, Verifier: verifier})

	body := validBody()
	body["company"] = "Acme Inc"
	body["turnstileToken"] = "tok"
	w := postLead(t, h, body, nil)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "spam detected", decodeResponse(t, w).Error)
	assert.Empty(t, webhook.calls, "honeypot must prevent any delivery")
	assert.Zero(t, verifier.calls, "honeypot rejects before the captcha call")
	assert.Empty(t, limiter.keys, "rejected spam must not consume quota")
}

func TestSubmitDwellTime(t *testing.T) {
	tests := []struct {
		name       string
		openedAt   int64
		submitted  int64
		wantStatus int
	}{
		{"too fast", 1_000, 3_499, http.StatusTooManyRequests},
		{"exactly at boundary", 1_000, 3_500, http.StatusOK},
		{"missing formOpenedAt", 0, 10_000, http.StatusTooManyRequests},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			webhook := &stubNotifier{}
			h := newTestHandler(HandlerConfig{Webhook: webhook})

			body := validBody()
			body["formOpenedAt"] = tt.openedAt
			body["submittedAt"] = tt.submitted
			w := postLead(t, h, body, nil)

			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus != http.StatusOK {
				assert.Equal(t, "submitted too quickly", decodeResponse(t, w).Error)
				assert.Empty(t, webhook.calls)
			}
		})
	}
}

func TestSubmitDefaultsSubmittedAtToNow(t *testing.T) {
	webhook := &stubNotifier{}
	h := newTestHandler(HandlerConfig{Webhook: webhook})
	h.now = func() time.Time { return time.UnixMilli(50_000) }

	body := validBody()
	delete(body, "submittedAt")
	body["formOpenedAt"] = 40_000
	w := postLead(t, h, body, nil)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, webhook.calls, 1)
}

func TestSubmitCaptchaStages(t *testing.T) {
	t.Run("token required when captcha configured", func(t *testing.T) {
		webhook := &stubNotifier{}
		verifier := &stubVerifier{ok: true}
		h := newTestHandler(HandlerConfig{Webhook: webhook, Verifier: verifier})

		w := postLead(t, h, validBody(), nil)

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "turnstile token required", decodeResponse(t, w).Error)
		assert.Zero(t, verifier.calls)
		assert.Empty(t, webhook.calls)
	})

	t.Run("failed challenge rejects", func(t *testing.T) {
		webhook := &stubNotifier{}
		verifier := &stubVerifier{ok: false}
		h := newTestHandler(HandlerConfig{Webhook: webhook, Verifier: verifier})

		body := validBody()
		body["turnstileToken"] = "bad-token"
		w := postLead(t, h, body, nil)

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "turnstile validation failed", decodeResponse(t, w).Error)
		assert.Equal(t, 1, verifier.calls)
		assert.Empty(t, webhook.calls)
	})

	t.Run("verifier transport error is an internal fault", func(t *testing.T) {
		webhook := &stubNotifier{}
		verifier := &stubVerifier{err: errors.New("siteverify unreachable")}
		h := newTestHandler(HandlerConfig{Webhook: webhook, Verifier: verifier})

		body := validBody()
		body["turnstileToken"] = "tok"
		w := postLead(t, h, body, nil)

		require.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Internal server error", decodeResponse(t, w).Error)
		assert.Empty(t, webhook.calls)
	})

	t.Run("verifier receives the forwarded client ip", func(t *testing.T) {
		webhook := &stubNotifier{}
		verifier := &stubVerifier{ok: true}
		h := newTestHandler(HandlerConfig{Webhook: webhook, Verifier: verifier})

		body := validBody()
		body["turnstileToken"] = "tok"
		w := postLead(t, h, body, map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"})

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "tok", verifier.gotToken)
		assert.Equal(t, "203.0.113.7", verifier.gotIP)
	})

	t.Run("captcha skipped when not configured", func(t *testing.T) {
		webhook := &stubNotifier{}
		h := newTestHandler(HandlerConfig{Webhook: webhook})

		w := postLead(t, h, validBody(), nil)

		require.Equal(t, http.StatusOK, w.Code)
		require.Len(t, webhook.calls, 1)
	})
}

func TestSubmitRateLimited(t *testing.T) {
	webhook := &stubNotifier{}
	limiter := &recordingLimiter{allowed: false}
	h := newTestHandler(HandlerConfig{Webhook: webhook, Limiter: limiter})

	w := postLead(t, h, validBody(), map[string]string{"X-Forwarded-For": "198.51.100.4"})

	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "too many requests", decodeResponse(t, w).Error)
	assert.Equal(t, []string{"198.51.100.4"}, limiter.keys)
	assert.Empty(t, webhook.calls)
}

func TestSubmitRateLimiterFailureIsInternal(t *testing.T) {
	webhook := &stubNotifier{}
	limiter := &recordingLimiter{err: errors.New("redis down")}
	h := newTestHandler(HandlerConfig{Webhook: webhook, Limiter: limiter})

	w := postLead(t, h, validBody(), nil)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", decodeResponse(t, w).Error)
	assert.Empty(t, webhook.calls)
}

func TestSubmitSixthRequestRateLimited(t *testing.T) {
	webhook := &stubNotifier{}
	h := newTestHandler(HandlerConfig{
		Webhook: webhook,
		Limiter: NewMemoryLimiter(5, time.Minute),
	})

	headers := map[string]string{"X-Forwarded-For": "198.51.100.4"}
	for i := 0; i < 5; i++ {
		w := postLead(t, h, validBody(), headers)
		require.Equal(t, http.StatusOK, w.Code, "request %d should succeed", i+1)
	}

	w := postLead(t, h, validBody(), headers)
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	// A different client key is unaffected.
	w = postLead(t, h, validBody(), map[string]string{"X-Forwarded-For": "198.51.100.99"})
	require.Equal(t, http.StatusOK, w.Code)

	assert.Len(t, webhook.calls, 6)
}

func TestSubmitWebhookFailureAlertsAndReturns502(t *testing.T) {
	webhook := &stubNotifier{err: errors.New("upstream 500")}
	alerter := &stubAlerter{err: errors.New("telegram also down")}
	h := newTestHandler(HandlerConfig{Webhook: webhook, Alerter: alerter})

	w := postLead(t, h, validBody(), nil)

	require.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "Webhook delivery failed", decodeResponse(t, w).Error)
	require.Len(t, alerter.calls, 1, "exactly one failure alert")
	assert.Equal(t, "Иван Петров", alerter.calls[0].Name)
}

func TestSubmitWebhookFailureWithoutAlerter(t *testing.T) {
	webhook := &stubNotifier{err: errors.New("upstream 503")}
	h := newTestHandler(HandlerConfig{Webhook: webhook})

	w := postLead(t, h, validBody(), nil)

	require.Equal(t, http.StatusBadGateway, w.Code)
}

func TestSubmitTelegramFallback(t *testing.T) {
	telegram := &stubNotifier{}
	h := newTestHandler(HandlerConfig{Telegram: telegram})

	w := postLead(t, h, validBody(), nil)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, telegram.calls, 1)
}

func TestSubmitTelegramDeliveryFailure(t *testing.T) {
	telegram := &stubNotifier{err: errors.New("chat unreachable")}
	h := newTestHandler(HandlerConfig{Telegram: telegram})

	w := postLead(t, h, validBody(), nil)

	require.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "Telegram delivery failed", decodeResponse(t, w).Error)
}

func TestSubmitWebhookPreferredOverTelegram(t *testing.T) {
	webhook := &stubNotifier{}
	telegram := &stubNotifier{}
	h := newTestHandler(HandlerConfig{Webhook: webhook, Telegram: telegram})

	w := postLead(t, h, validBody(), nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, webhook.calls, 1)
	assert.Empty(t, telegram.calls, "exactly one delivery path is used")
}

func TestSubmitNoDestinationConfigured(t *testing.T) {
	h := newTestHandler(HandlerConfig{})

	w := postLead(t, h, validBody(), nil)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.OK)
	assert.NotEmpty(t, resp.Warning, "misconfigured deployment must warn, not fail")
}

func TestClientKey(t *testing.T) {
	tests := []struct {
		name       string
		xff        string
		remoteAddr string
		want       string
	}{
		{"forwarded-for first hop", "203.0.113.7, 10.0.0.1", "192.0.2.1:1234", "203.0.113.7"},
		{"remote addr fallback", "", "192.0.2.1:1234", "192.0.2.1"},
		{"remote addr without port", "", "192.0.2.1", "192.0.2.1"},
		{"nothing known", "", "", "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/lead", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			assert.Equal(t, tt.want, clientKey(req))
		})
	}
}
