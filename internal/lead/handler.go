package lead

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/openclaw/hr-agency-api/internal/observability/metrics"
	"github.com/openclaw/hr-agency-api/pkg/logging"
)

// Notifier delivers a validated lead to a downstream destination.
type Notifier interface {
	Deliver(ctx context.Context, l Lead) error
}

// FailureAlerter sends a best-effort side-channel alert when the primary
// delivery path fails.
type FailureAlerter interface {
	AlertDeliveryFailure(ctx context.Context, l Lead, deliverErr error) error
}

// CaptchaVerifier checks a Turnstile challenge token server-side.
type CaptchaVerifier interface {
	Verify(ctx context.Context, token, remoteIP string) (bool, error)
}

// Pipeline outcomes reported to metrics.
const (
	outcomeAccepted       = "accepted"
	outcomeInvalid        = "invalid"
	outcomeSpam           = "spam"
	outcomeTooFast        = "too_fast"
	outcomeCaptchaFailed  = "captcha_failed"
	outcomeRateLimited    = "rate_limited"
	outcomeDeliveryFailed = "delivery_failed"
	outcomeError          = "error"
)

// HandlerConfig wires the pipeline's collaborators. Webhook, Telegram,
// Alerter and Verifier are all optional; leaving one nil disables the
// corresponding pipeline branch.
type HandlerConfig struct {
	Webhook  Notifier
	Telegram Notifier
	Alerter  FailureAlerter
	Verifier CaptchaVerifier
	Limiter  RateLimiter
	Logger   *logging.Logger
	Metrics  *metrics.LeadMetrics
}

// Handler implements POST /api/lead as a linear gate pipeline: shape check,
// length/format validation, honeypot, dwell time, optional captcha, rate
// limit, then delivery through exactly one notifier. Each gate rejects
// terminally; no side effects happen before all gates pass.
type Handler struct {
	webhook  Notifier
	telegram Notifier
	alerter  FailureAlerter
	verifier CaptchaVerifier
	limiter  RateLimiter
	logger   *logging.Logger
	metrics  *metrics.LeadMetrics
	now      func() time.Time
}

// NewHandler creates the lead intake handler.
func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		webhook:  cfg.Webhook,
		telegram: cfg.Telegram,
		alerter:  cfg.Alerter,
		verifier: cfg.Verifier,
		limiter:  cfg.Limiter,
		logger:   logger,
		metrics:  cfg.Metrics,
		now:      time.Now,
	}
}

type apiResponse struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
	Warning string `json:"warning,omitempty"`
}

func fail(reason string) apiResponse {
	return apiResponse{OK: false, Error: reason}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("lead pipeline panic", "panic", rec)
			h.metrics.ObserveSubmission(outcomeError)
			writeJSON(w, http.StatusInternalServerError, fail("Internal server error"))
		}
	}()

	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, fail("Method not allowed"))
		return
	}

	var sub Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil && !errors.Is(err, io.EOF) {
		h.metrics.ObserveSubmission(outcomeInvalid)
		writeJSON(w, http.StatusBadRequest, fail("invalid request body"))
		return
	}

	name := strings.TrimSpace(sub.Name)
	contact := strings.TrimSpace(sub.Contact)

	if name == "" || contact == "" {
		h.metrics.ObserveSubmission(outcomeInvalid)
		writeJSON(w, http.StatusBadRequest, fail("name and contact are required"))
		return
	}
	if !validName(name) {
		h.metrics.ObserveSubmission(outcomeInvalid)
		writeJSON(w, http.StatusBadRequest, fail("invalid name length"))
		return
	}
	if !validContact(contact) {
		h.metrics.ObserveSubmission(outcomeInvalid)
		writeJSON(w, http.StatusBadRequest, fail("invalid contact format"))
		return
	}

	if strings.TrimSpace(sub.Company) != "" {
		h.logger.Warn("honeypot tripped", "client", clientKey(r))
		h.metrics.ObserveSubmission(outcomeSpam)
		writeJSON(w, http.StatusBadRequest, fail("spam detected"))
		return
	}

	submittedAt := sub.SubmittedAt
	if submittedAt == 0 {
		submittedAt = h.now().UnixMilli()
	}
	if dwellTooShort(sub.FormOpenedAt, submittedAt) {
		h.metrics.ObserveSubmission(outcomeTooFast)
		writeJSON(w, http.StatusTooManyRequests, fail("submitted too quickly"))
		return
	}

	if h.verifier != nil {
		if sub.TurnstileToken == "" {
			h.metrics.ObserveSubmission(outcomeCaptchaFailed)
			writeJSON(w, http.StatusBadRequest, fail("turnstile token required"))
			return
		}
		ok, err := h.verifier.Verify(r.Context(), sub.TurnstileToken, clientKey(r))
		if err != nil {
			h.internalError(w, "turnstile verification call failed", err)
			return
		}
		if !ok {
			h.metrics.ObserveSubmission(outcomeCaptchaFailed)
			writeJSON(w, http.StatusBadRequest, fail("turnstile validation failed"))
			return
		}
	}

	// Rate limiting runs after content validation on purpose: malformed junk
	// must not consume a client's quota.
	allowed, err := h.limiter.Allow(r.Context(), clientKey(r))
	if err != nil {
		h.internalError(w, "rate limiter failed", err)
		return
	}
	if !allowed {
		h.metrics.ObserveSubmission(outcomeRateLimited)
		writeJSON(w, http.StatusTooManyRequests, fail("too many requests"))
		return
	}

	h.deliver(r.Context(), w, NewLead(name, contact, strings.TrimSpace(sub.Source), h.now()))
}

// deliver relays the lead through exactly one destination, preferring the
// webhook. A deployment with no destination at all still acknowledges the
// submitter: a converted lead must never be dropped with a failure response
// because of operator misconfiguration.
func (h *Handler) deliver(ctx context.Context, w http.ResponseWriter, l Lead) {
	switch {
	case h.webhook != nil:
		start := h.now()
		err := h.webhook.Deliver(ctx, l)
		h.metrics.ObserveDelivery("webhook", time.Since(start).Seconds())
		if err != nil {
			h.logger.Error("webhook delivery failed", "error", err)
			if h.alerter != nil {
				// Best effort: the alert outcome never changes the response.
				if alertErr := h.alerter.AlertDeliveryFailure(ctx, l, err); alertErr != nil {
					h.logger.Warn("delivery failure alert also failed", "error", alertErr)
				}
			}
			h.metrics.ObserveSubmission(outcomeDeliveryFailed)
			writeJSON(w, http.StatusBadGateway, fail("Webhook delivery failed"))
			return
		}
		h.logger.Info("lead delivered", "channel", "webhook", "source", l.Source)

	case h.telegram != nil:
		start := h.now()
		err := h.telegram.Deliver(ctx, l)
		h.metrics.ObserveDelivery("telegram", time.Since(start).Seconds())
		if err != nil {
			h.logger.Error("telegram delivery failed", "error", err)
			h.metrics.ObserveSubmission(outcomeDeliveryFailed)
			writeJSON(w, http.StatusBadGateway, fail("Telegram delivery failed"))
			return
		}
		h.logger.Info("lead delivered", "channel", "telegram", "source", l.Source)

	default:
		h.logger.Warn("no delivery destination configured, lead only logged",
			"name", l.Name,
			"contact", l.Contact,
			"source", l.Source,
		)
		h.metrics.ObserveSubmission(outcomeAccepted)
		writeJSON(w, http.StatusOK, apiResponse{OK: true, Warning: "No destination configured"})
		return
	}

	h.metrics.ObserveSubmission(outcomeAccepted)
	writeJSON(w, http.StatusOK, apiResponse{OK: true})
}

func (h *Handler) internalError(w http.ResponseWriter, msg string, err error) {
	h.logger.Error(msg, "error", err)
	h.metrics.ObserveSubmission(outcomeError)
	writeJSON(w, http.StatusInternalServerError, fail("Internal server error"))
}

// clientKey derives the rate-limit / captcha identity of the caller: first
// forwarded-for hop, then the connection address, then a sentinel.
func clientKey(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if first := strings.TrimSpace(strings.Split(xff, ",")[0]); first != "" {
			return first
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
