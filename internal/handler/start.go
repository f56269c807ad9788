package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"contentgpt/internal/domain"
)

// handleStart handles /start command
func (h *Handler) handleStart(c tele.Context) error {
	userID := c.Sender().ID

	h.logger.Info("User started bot",
		zap.Int64("user_id", userID),
		zap.String("username", c.Sender().Username),
	)

	h.sessions.Cancel(userID)

	text := "🏠 Главное меню\n\nЧто создаём сегодня?"
	if c.Callback() != nil {
		if err := c.Edit(text, h.mainMenuMarkup(userID)); err != nil {
			if handleErr := h.handleEditError(err, c, userID); handleErr == nil {
				return nil
			}
			return c.Send(text, h.mainMenuMarkup(userID))
		}
		return c.Respond()
	}
	return c.Send(text, h.mainMenuMarkup(userID))
}

// handleHelp handles /help command
func (h *Handler) handleHelp(c tele.Context) error {
	return c.Send(
		"Я генерирую контент для соцсетей:\n\n" +
			"📝 Пост — пост по теме, стилю, аудитории и CTA\n" +
			"📱 История — сценарий сторис на 5–7 слайдов\n" +
			"💡 Идеи — 10 идей контента для твоей ниши\n" +
			"💬 Подпись — подпись к посту с хештегами\n" +
			"🤖 Мой стиль — анализ твоего стиля по примерам\n\n" +
			"Команды:\n" +
			"/start — главное меню\n" +
			"/profile — профиль и лимиты\n" +
			"/cancel — отменить текущий шаг",
	)
}

// handleProfile shows the user card: tier, expiry, today's usage
func (h *Handler) handleProfile(c tele.Context) error {
	userID := c.Sender().ID

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	user, st, err := h.quota.Profile(ctx, userID)
	if err != nil {
		h.logger.Error("Failed to load profile", zap.Error(err), zap.Int64("user_id", userID))
		return c.Send("Произошла ошибка. Попробуйте позже.")
	}

	now := time.Now()
	tier := user.EffectiveTier(now)
	plan := domain.PlanFor(tier)

	var b strings.Builder
	fmt.Fprintf(&b, "👤 Профиль\n\n")
	fmt.Fprintf(&b, "Тариф: %s\n", plan.Name)
	if user.SubscriptionUntil != nil && tier != domain.TierFree {
		fmt.Fprintf(&b, "Действует до: %s\n", user.SubscriptionUntil.Format("02.01.2006"))
	}
	if st.Unlimited {
		fmt.Fprintf(&b, "Генерации сегодня: без ограничений\n")
	} else {
		fmt.Fprintf(&b, "Генерации сегодня: %d из %d\n", st.Used, st.Limit)
	}
	if user.BonusPoints > 0 {
		fmt.Fprintf(&b, "Бонусные баллы: %d\n", user.BonusPoints)
	}

	markup := &tele.ReplyMarkup{}
	markup.Inline(
		markup.Row(btnSubscribe),
		markup.Row(btnMainMenu),
	)

	if c.Callback() != nil {
		if err := c.Edit(b.String(), markup); err != nil {
			if handleErr := h.handleEditError(err, c, userID); handleErr == nil {
				return nil
			}
			return c.Send(b.String(), markup)
		}
		return c.Respond()
	}
	return c.Send(b.String(), markup)
}

// handleSaved shows the user's recently saved artifacts
func (h *Handler) handleSaved(c tele.Context) error {
	userID := c.Sender().ID

	items, err := h.generation.Recent(userID, 5)
	if err != nil {
		h.logger.Error("Failed to load saved content", zap.Error(err), zap.Int64("user_id", userID))
		return c.Respond(&tele.CallbackResponse{Text: "Ошибка при загрузке"})
	}

	if len(items) == 0 {
		return c.Respond(&tele.CallbackResponse{
			Text:      "Пока ничего не сохранено",
			ShowAlert: true,
		})
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📂 Последние сохранённые (%d):\n\n", len(items))
	for i, item := range items {
		fmt.Fprintf(&b, "%d. [%s] %s\n%s\n\n",
			i+1, kindLabel(item.Kind), item.CreatedAt.Format("02.01.2006"), truncate(item.Content, 300))
	}

	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(btnMainMenu))

	if err := c.Edit(b.String(), markup); err != nil {
		if handleErr := h.handleEditError(err, c, userID); handleErr == nil {
			return nil
		}
		return c.Send(b.String(), markup)
	}
	return c.Respond()
}

// kindLabel maps a content kind to its Russian display name
func kindLabel(kind domain.ContentKind) string {
	switch kind {
	case domain.KindPost:
		return "Пост"
	case domain.KindStory:
		return "История"
	case domain.KindIdeas:
		return "Идеи"
	case domain.KindCaption:
		return "Подпись"
	case domain.KindStyle:
		return "Стиль"
	default:
		return string(kind)
	}
}

// truncate shortens text for list previews
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
