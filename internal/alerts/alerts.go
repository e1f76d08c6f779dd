// Package alerts tells church staff about items waiting for them, such as
// pending prayer requests and new connect cards.
package alerts

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier delivers a short alert to staff
type Notifier interface {
	Notify(ctx context.Context, title, body string) error
}

// Nop drops alerts. Used when no bot is configured.
type Nop struct{}

func (Nop) Notify(context.Context, string, string) error { return nil }

// TelegramNotifier posts alerts into a staff chat
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// New returns a Telegram notifier, or Nop when token or chat id is missing
func New(token, chatID string) (Notifier, error) {
	if token == "" || chatID == "" {
		log.Println("Staff alerts disabled: TELEGRAM_BOT_TOKEN or TELEGRAM_CHAT_ID not configured")
		return Nop{}, nil
	}

	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat id: %w", err)
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect telegram bot: %w", err)
	}

	log.Printf("Staff alerts enabled: telegram bot %s", bot.Self.UserName)
	return &TelegramNotifier{bot: bot, chatID: id}, nil
}

// Notify sends one message. The context is not used by the bot API.
func (n *TelegramNotifier) Notify(ctx context.Context, title, body string) error {
	msg := tgbotapi.NewMessage(n.chatID, FormatMessage(title, body))
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram alert: %w", err)
	}
	return nil
}

// FormatMessage renders a Markdown alert with a bold title
func FormatMessage(title, body string) string {
	return fmt.Sprintf("*%s*\n\n%s", escapeMarkdown(title), escapeMarkdown(body))
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
