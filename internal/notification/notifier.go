package notification

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Confirmation carries everything a delivery channel needs to tell a guardian
// about an interview. DedupToken is stable per booking so a downstream
// consumer can drop duplicates: delivery is at-least-once, a crash between
// send and flag-persist makes the closer resend on its next run.
type Confirmation struct {
	GuardianName   string
	GuardianEmail  string
	GuardianChatID *int64

	Motive       string
	SubjectLabel string
	Date         string
	Start        string
	End          string
	Note         string
	Professional string

	DedupToken string
}

// Notifier sends one confirmation. Implementations must tolerate being called
// multiple times for the same booking.
type Notifier interface {
	Send(ctx context.Context, c Confirmation) error
}

// LogNotifier writes confirmations to the log instead of delivering them.
// Used when no real channel is configured, typically in development.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(_ context.Context, c Confirmation) error {
	n.logger.Info("Confirmation (log only)",
		zap.String("guardian", c.GuardianName),
		zap.String("date", c.Date),
		zap.String("start", c.Start),
		zap.String("token", c.DedupToken),
	)
	return nil
}

// plainText renders the channel-independent message body.
func plainText(c Confirmation) string {
	note := strings.TrimSpace(c.Note)
	if note == "" {
		note = "No additional notes."
	}

	lines := []string{
		fmt.Sprintf("Dear %s,", c.GuardianName),
		"",
		"Your interview has been registered with the following details:",
		fmt.Sprintf("- Motive: %s", c.Motive),
		fmt.Sprintf("- Subject: %s", c.SubjectLabel),
		fmt.Sprintf("- Date: %s", c.Date),
		fmt.Sprintf("- Start time: %s", c.Start),
	}
	if c.End != "" {
		lines = append(lines, fmt.Sprintf("- End time: %s", c.End))
	}
	lines = append(lines,
		"",
		fmt.Sprintf("Notes: %s", note),
		"",
		fmt.Sprintf("Kind regards, %s", c.Professional),
	)

	return strings.Join(lines, "\n")
}
