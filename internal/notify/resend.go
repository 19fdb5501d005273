package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nyashahama/flareguard-backend/internal/model"
)

const resendBaseURL = "https://api.resend.com"

// resendClient is the concrete Sender backed by the Resend API.
type resendClient struct {
	apiKey     string
	fromAddr   string // e.g. "alerts@flareguard.app"
	fromName   string // e.g. "FlareGuard"
	baseURL    string
	httpClient *http.Client
}

// NewResendClient returns a Sender that delivers email via Resend. An empty
// baseURL uses the public API.
func NewResendClient(apiKey, fromAddr, fromName, baseURL string) Sender {
	if baseURL == "" {
		baseURL = resendBaseURL
	}
	return &resendClient{
		apiKey:   apiKey,
		fromAddr: fromAddr,
		fromName: fromName,
		baseURL:  strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// ─── RESEND API SHAPES ────────────────────────────────────────────────────────

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type resendResponse struct {
	ID    string `json:"id"`
	Error *struct {
		Name       string `json:"name"`
		Message    string `json:"message"`
		StatusCode int    `json:"statusCode"`
	} `json:"error"`
}

// ─── SENDER IMPLEMENTATION ────────────────────────────────────────────────────

// SendRiskAlert sends the flare risk alert.
func (c *resendClient) SendRiskAlert(ctx context.Context, p RiskAlertParams) error {
	subject := fmt.Sprintf("Flare risk is %s today (%d/100)", p.Result.RiskLevel, p.Result.RiskScore)
	if p.Location != "" {
		subject += " in " + p.Location
	}
	return c.send(ctx, p.To, subject, riskAlertHTML(p))
}

// ─── HTTP SEND ────────────────────────────────────────────────────────────────

func (c *resendClient) send(ctx context.Context, to, subject, body string) error {
	reqBody := resendRequest{
		From:    fmt.Sprintf("%s <%s>", c.fromName, c.fromAddr),
		To:      []string{to},
		Subject: subject,
		HTML:    body,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("notify: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("notify: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notify: http request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return fmt.Errorf("notify: read response: %w", err)
	}

	var parsed resendResponse
	if err := json.Unmarshal(respBytes, &parsed); err != nil {
		return fmt.Errorf("notify: unmarshal response (status %d): %w", resp.StatusCode, err)
	}
	if parsed.Error != nil {
		return fmt.Errorf("notify: Resend error %s: %s", parsed.Error.Name, parsed.Error.Message)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notify: unexpected status %d: %.200s", resp.StatusCode, string(respBytes))
	}
	return nil
}

// ─── HTML TEMPLATE ────────────────────────────────────────────────────────────

// alertRecommendations caps how many recommendations go into the email.
const alertRecommendations = 3

func riskAlertHTML(p RiskAlertParams) string {
	var factors strings.Builder
	for _, f := range p.Result.KeyFactors {
		fmt.Fprintf(&factors, "<li>%s</li>", html.EscapeString(f.Name))
	}

	var recs strings.Builder
	for i, r := range p.Result.Recommendations {
		if i == alertRecommendations {
			break
		}
		fmt.Fprintf(&recs, "<li><strong>%s</strong> %s</li>",
			html.EscapeString(priorityLabel(r.Priority)), html.EscapeString(r.Text))
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: sans-serif; color: #1a1a1a; max-width: 560px; margin: 0 auto; padding: 24px;">
  <h2 style="margin-bottom: 8px;">Your flare risk today: %s</h2>
  <p style="font-size: 32px; font-weight: 700; margin: 16px 0;">%d<span style="font-size: 16px; color: #6b7280;">/100</span></p>
  <p>%s</p>
  <h3>What's driving it</h3>
  <ul>%s</ul>
  <h3>What to do</h3>
  <ul>%s</ul>
  <hr style="border: none; border-top: 1px solid #e5e7eb; margin: 32px 0;">
  <p style="color: #9ca3af; font-size: 12px;">
    FlareGuard · You get these alerts because your risk threshold is set in your profile.
  </p>
</body>
</html>`,
		html.EscapeString(string(p.Result.RiskLevel)),
		p.Result.RiskScore,
		html.EscapeString(p.Result.Reasoning),
		factors.String(),
		recs.String(),
	)
}

func priorityLabel(p model.Priority) string {
	switch p {
	case model.PriorityCritical:
		return "Now:"
	case model.PriorityHigh:
		return "Today:"
	default:
		return "Tip:"
	}
}
