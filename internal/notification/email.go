package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const brevoEndpoint = "https://api.brevo.com/v3/smtp/email"

// EmailNotifier delivers confirmations through the Brevo transactional
// email API.
type EmailNotifier struct {
	apiKey     string
	sender     string
	senderName string
	client     *http.Client
	logger     *zap.Logger
}

func NewEmailNotifier(apiKey, sender, senderName string, logger *zap.Logger) *EmailNotifier {
	return &EmailNotifier{
		apiKey:     apiKey,
		sender:     sender,
		senderName: senderName,
		client:     &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

type brevoPayload struct {
	Sender      map[string]string   `json:"sender"`
	To          []map[string]string `json:"to"`
	Subject     string              `json:"subject"`
	TextContent string              `json:"textContent"`
	HTMLContent string              `json:"htmlContent"`
	Headers     map[string]string   `json:"headers,omitempty"`
}

// Send mails the confirmation to the guardian. The dedup token travels in a
// message header so mail-side consumers can spot resends.
func (n *EmailNotifier) Send(ctx context.Context, c Confirmation) error {
	if c.GuardianEmail == "" || !strings.Contains(c.GuardianEmail, "@") {
		return fmt.Errorf("invalid recipient email %q", c.GuardianEmail)
	}

	payload := brevoPayload{
		Sender:      map[string]string{"name": n.senderName, "email": n.sender},
		To:          []map[string]string{{"email": c.GuardianEmail, "name": c.GuardianName}},
		Subject:     "Interview confirmation",
		TextContent: plainText(c),
		HTMLContent: htmlBody(c),
	}
	if c.DedupToken != "" {
		payload.Headers = map[string]string{"X-Booking-Token": c.DedupToken}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, brevoEndpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create email request: %w", err)
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("api-key", n.apiKey)
	req.Header.Set("content-type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusAccepted {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("email provider returned %d: %s", resp.StatusCode, string(respBody))
	}

	n.logger.Info("Confirmation email sent",
		zap.String("to", c.GuardianEmail),
		zap.String("date", c.Date),
		zap.String("token", c.DedupToken),
	)

	return nil
}

func htmlBody(c Confirmation) string {
	note := strings.TrimSpace(c.Note)
	if note == "" {
		note = "No additional notes."
	}

	rows := []struct{ label, value string }{
		{"Motive", c.Motive},
		{"Subject", c.SubjectLabel},
		{"Date", c.Date},
		{"Start time", c.Start},
		{"End time", c.End},
	}

	var details strings.Builder
	for _, row := range rows {
		if row.value == "" {
			continue
		}
		fmt.Fprintf(&details,
			"<tr><td style=\"padding:6px 12px;font-weight:600;\">%s</td><td style=\"padding:6px 12px;\">%s</td></tr>",
			row.label, row.value,
		)
	}

	return fmt.Sprintf(
		"<p>Dear %s,</p>"+
			"<p>Your interview has been registered with the following details:</p>"+
			"<table>%s</table>"+
			"<p><b>Notes:</b> %s</p>"+
			"<p>Kind regards,<br/>%s</p>",
		c.GuardianName, details.String(), note, c.Professional,
	)
}
