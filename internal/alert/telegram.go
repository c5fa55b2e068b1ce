package alert

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// TelegramNotifier posts alerts to one chat.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramNotifier authenticates the bot token.
func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	log.Info().Str("bot", bot.Self.UserName).Int64("chat", chatID).Msg("telegram notifier ready")
	return &TelegramNotifier{bot: bot, chatID: chatID}, nil
}

// Name identifies the channel in logs.
func (t *TelegramNotifier) Name() string { return "telegram" }

// Send posts one alert. The bot API carries its own timeouts, so the
// context is not threaded through.
func (t *TelegramNotifier) Send(_ context.Context, a Alert) error {
	msg := tgbotapi.NewMessage(t.chatID, Format(a))
	msg.DisableWebPagePreview = true
	_, err := t.bot.Send(msg)
	return err
}
