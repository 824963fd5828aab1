// Package captcha verifies Cloudflare Turnstile challenge tokens against the
// siteverify endpoint.
package captcha

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/openclaw/hr-agency-api/pkg/logging"
)

const defaultVerifyURL = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

// TurnstileVerifier performs the server-to-server token check.
type TurnstileVerifier struct {
	secret    string
	verifyURL string
	client    *http.Client
	logger    *logging.Logger
}

// NewTurnstileVerifier creates a verifier. Returns nil when no secret is
// configured, which disables the captcha stage entirely.
func NewTurnstileVerifier(secret, verifyURL string, client *http.Client, logger *logging.Logger) *TurnstileVerifier {
	if secret == "" {
		return nil
	}
	if verifyURL == "" {
		verifyURL = defaultVerifyURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &TurnstileVerifier{
		secret:    secret,
		verifyURL: verifyURL,
		client:    client,
		logger:    logger,
	}
}

type verifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify posts the token to siteverify and reports whether the challenge
// passed. Transport or decode failures are returned as errors, distinct from
// a clean "challenge failed" verdict.
func (v *TurnstileVerifier) Verify(ctx context.Context, token, remoteIP string) (bool, error) {
	form := url.Values{
		"secret":   {v.secret},
		"response": {token},
		"remoteip": {remoteIP},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return false, fmt.Errorf("build siteverify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("post siteverify request: %w", err)
	}
	defer resp.Body.Close()

	var body verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("decode siteverify response: %w", err)
	}

	if !body.Success {
		v.logger.Warn("turnstile challenge rejected", "error_codes", body.ErrorCodes)
	}
	return body.Success, nil
}
