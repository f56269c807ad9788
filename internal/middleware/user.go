package middleware

import (
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"contentgpt/internal/repository"
)

// EnsureUser creates the user row on first contact, so every handler can
// assume the user exists
func EnsureUser(users repository.UserRepository, logger *zap.Logger) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if sender == nil {
				return next(c)
			}

			if err := users.EnsureUser(sender.ID, sender.Username, sender.FirstName); err != nil {
				logger.Error("Failed to ensure user exists in middleware",
					zap.Error(err),
					zap.Int64("user_id", sender.ID),
				)
				return c.Send("Произошла ошибка. Попробуйте позже.")
			}

			return next(c)
		}
	}
}
