package handler

import (
	"fmt"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// handleStats shows aggregate counters. Admin only; everyone else gets the
// main menu.
func (h *Handler) handleStats(c tele.Context) error {
	userID := c.Sender().ID

	if userID != h.adminID {
		return h.handleStart(c)
	}

	stats, err := h.maintenance.Stats()
	if err != nil {
		h.logger.Error("Failed to load stats", zap.Error(err))
		if c.Callback() != nil {
			return c.Respond(&tele.CallbackResponse{Text: "Ошибка при загрузке"})
		}
		return c.Send("Произошла ошибка. Попробуйте позже.")
	}

	text := fmt.Sprintf(
		"📊 Статистика\n\n"+
			"Пользователи: %d\n"+
			"С подпиской: %d\n"+
			"Генераций всего: %d\n"+
			"Успешных платежей: %d\n"+
			"Выручка: %.0f₽",
		stats.TotalUsers, stats.PaidUsers, stats.Generations,
		stats.SucceededPayments, stats.Revenue,
	)

	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(btnMainMenu))

	if c.Callback() != nil {
		if err := c.Edit(text, markup); err != nil {
			if handleErr := h.handleEditError(err, c, userID); handleErr == nil {
				return nil
			}
			return c.Send(text, markup)
		}
		return c.Respond()
	}
	return c.Send(text, markup)
}
