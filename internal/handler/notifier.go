package handler

import (
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// BotNotifier delivers out-of-band messages, like the subscription
// confirmation the webhook path triggers. Fire-and-forget.
type BotNotifier struct {
	bot    *tele.Bot
	logger *zap.Logger
}

// NewBotNotifier creates a notifier over the bot connection
func NewBotNotifier(bot *tele.Bot, logger *zap.Logger) *BotNotifier {
	return &BotNotifier{bot: bot, logger: logger}
}

// Notify sends the text to the user, logging failures instead of returning
// them: notification delivery never gates a payment transition
func (n *BotNotifier) Notify(userID int64, text string) {
	if _, err := n.bot.Send(tele.ChatID(userID), text); err != nil {
		n.logger.Warn("Failed to notify user",
			zap.Error(err),
			zap.Int64("user_id", userID),
		)
	}
}
