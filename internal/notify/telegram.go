package notify

import (
	"context"
	"sort"
	"strings"

	tele "gopkg.in/telebot.v4"
)

var telegramPrefixes = map[Level]string{
	LevelInfo:    "ℹ️",
	LevelSuccess: "✅",
	LevelWarning: "⚠️",
	LevelError:   "🚨",
}

// TelegramChannel sends notifications as plain-text bot messages.
type TelegramChannel struct {
	bot    *tele.Bot
	chatID int64
}

func NewTelegramChannel(token string, chatID int64) (*TelegramChannel, error) {
	bot, err := tele.NewBot(tele.Settings{Token: token})
	if err != nil {
		return nil, err
	}
	return &TelegramChannel{bot: bot, chatID: chatID}, nil
}

func (t *TelegramChannel) Name() string { return "telegram" }

func (t *TelegramChannel) Send(ctx context.Context, n Notification) error {
	_ = ctx // telebot manages its own request deadlines

	var b strings.Builder
	if p := telegramPrefixes[n.Level]; p != "" {
		b.WriteString(p)
		b.WriteString(" ")
	}
	b.WriteString(n.Subject)
	if n.Message != "" {
		b.WriteString("\n")
		b.WriteString(n.Message)
	}

	// Stable detail order so repeated reports read the same.
	keys := make([]string, 0, len(n.Details))
	for k := range n.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString("\n- ")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(n.Details[k])
	}

	_, err := t.bot.Send(tele.ChatID(t.chatID), b.String(), &tele.SendOptions{
		DisableWebPagePreview: true,
	})
	return err
}
