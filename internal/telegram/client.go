// Package telegram provides a client for sending notifications via Telegram Bot API.
// It formats the redress summary for internal communication into a MarkdownV2
// message and handles delivery with retry logic for reliability.
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rewired-gh/redress-analyzer/internal/logger"
	"github.com/rewired-gh/redress-analyzer/internal/report"
)

// sender is the part of the bot API used for delivery.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Client handles Telegram notifications
type Client struct {
	bot            sender
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a new Telegram client
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	return newClient(bot, chatID, maxRetries, retryDelayBase)
}

func newClient(bot sender, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Client{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// Send sends the summary for internal communication
func (c *Client) Send(ctx context.Context, summary report.Summary) error {
	message := formatMessage(summary)

	// Create message
	msg := tgbotapi.NewMessage(c.chatID, message)
	msg.ParseMode = tgbotapi.ModeMarkdownV2

	// Send with retry
	var lastErr error

	for i := 0; i < c.maxRetries; i++ {
		_, err := c.bot.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err
		logger.Warn("Telegram send attempt %d/%d failed: %v", i+1, c.maxRetries, err)

		if i == c.maxRetries-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.retryDelayBase * time.Duration(i+1)):
		}
	}

	return fmt.Errorf("failed to send message after %d retries: %w", c.maxRetries, lastErr)
}

// formatMessage formats the summary into a Telegram message
func formatMessage(s report.Summary) string {
	var b strings.Builder

	b.WriteString("📬 *Redress analysis*\n\n")
	fmt.Fprintf(&b, "📄 File: %s\n", escapeMarkdownV2(s.Subject))
	if s.DayZero != "" {
		fmt.Fprintf(&b, "📅 Day 0: %s\n", escapeMarkdownV2(s.DayZero))
	}
	if s.Weighting != "" {
		fmt.Fprintf(&b, "⚖️ Weighting: %s\n", escapeMarkdownV2(s.Weighting))
	}
	used := "Redresses used"
	if info := s.ReasonInfo(); info != "" {
		used += " (" + info + ")"
	}
	fmt.Fprintf(&b, "🔢 %s: %s\n\n", escapeMarkdownV2(used), escapeMarkdownV2(report.FormatCount(s.Records)))

	fmt.Fprintf(&b, "• 50%% captured within *%s*\n", escapeMarkdownV2(report.FormatDays(s.P50)))
	fmt.Fprintf(&b, "• 95%% captured within *%s*\n", escapeMarkdownV2(report.FormatDays(s.P95)))
	fmt.Fprintf(&b, "• 99%% captured within *%s*\n\n", escapeMarkdownV2(report.FormatDays(s.P99)))

	fmt.Fprintf(&b, "*Recommendation:* %s\n", escapeMarkdownV2(s.Recommendation()))
	if s.SmallSample {
		fmt.Fprintf(&b, "\n⚠️ %s\n", escapeMarkdownV2(report.SmallSampleWarning(s.Records, s.MinSample)))
	}

	return b.String()
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2
func escapeMarkdownV2(text string) string {
	// Characters that need escaping in MarkdownV2:
	// \ _ * [ ] ( ) ~ ` > # + - = | { } . !

	var b strings.Builder
	for _, char := range text {
		switch char {
		case '\\', '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			b.WriteRune('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
