package notification

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"go.uber.org/zap"
)

// TelegramNotifier delivers confirmations to guardians who registered a
// Telegram chat with the school bot.
type TelegramNotifier struct {
	bot    *bot.Bot
	logger *zap.Logger
}

// NewTelegramNotifier builds the bot client from its token. The bot is used
// for outbound sends only; no update polling is started.
func NewTelegramNotifier(token string, logger *zap.Logger) (*TelegramNotifier, error) {
	b, err := bot.New(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &TelegramNotifier{bot: b, logger: logger}, nil
}

func (n *TelegramNotifier) Send(ctx context.Context, c Confirmation) error {
	if c.GuardianChatID == nil {
		return fmt.Errorf("guardian has no telegram chat")
	}

	_, err := n.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: *c.GuardianChatID,
		Text:   plainText(c),
	})
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}

	n.logger.Info("Confirmation sent via telegram",
		zap.Int64("chat_id", *c.GuardianChatID),
		zap.String("date", c.Date),
		zap.String("token", c.DedupToken),
	)

	return nil
}

// Fanout routes a confirmation to the first channel the guardian can receive:
// email when an address is on file, otherwise Telegram. Either adapter may be
// nil when the channel is not configured.
type Fanout struct {
	email    Notifier
	telegram Notifier
}

func NewFanout(email, telegram Notifier) *Fanout {
	return &Fanout{email: email, telegram: telegram}
}

func (f *Fanout) Send(ctx context.Context, c Confirmation) error {
	if f.email != nil && c.GuardianEmail != "" {
		return f.email.Send(ctx, c)
	}
	if f.telegram != nil && c.GuardianChatID != nil {
		return f.telegram.Send(ctx, c)
	}
	return fmt.Errorf("guardian %q has no reachable notification channel", c.GuardianName)
}
