package notify

import (
	"fmt"

	"linkup/backend/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// TelegramPusher delivers push notifications as direct messages from
// the service bot to the user's linked Telegram chat.
type TelegramPusher struct {
	bot *tgbotapi.BotAPI
	log *zap.Logger
}

// NewTelegramPusher authenticates the bot with the given token.
func NewTelegramPusher(token string, log *zap.Logger) (*TelegramPusher, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to start telegram bot: %w", err)
	}
	bot.Debug = false
	if log == nil {
		log = zap.NewNop()
	}
	log.Info("telegram push bot authorized", zap.String("account", bot.Self.UserName))
	return &TelegramPusher{bot: bot, log: log}, nil
}

// Push sends the notification text to the user's linked chat.
func (p *TelegramPusher) Push(user *models.User, title, body string) error {
	if user.TelegramChatID == 0 {
		return fmt.Errorf("user %s has no linked telegram chat", user.ID)
	}
	msg := tgbotapi.NewMessage(user.TelegramChatID, title+"\n\n"+body)
	if _, err := p.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send failed: %w", err)
	}
	return nil
}
