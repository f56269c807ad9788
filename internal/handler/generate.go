package handler

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"contentgpt/internal/domain"
	"contentgpt/internal/fsm"
)

// startFlow begins a wizard after a non-consuming quota pre-check, so a user
// who is already out of quota learns it before typing anything
func (h *Handler) startFlow(c tele.Context, flow fsm.Flow) error {
	userID := c.Sender().ID

	if c.Callback() != nil {
		if err := c.Respond(); err != nil {
			h.logger.Warn("Failed to acknowledge callback", zap.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	st, err := h.quota.Check(ctx, userID)
	if err != nil {
		h.logger.Error("Quota pre-check failed", zap.Error(err), zap.Int64("user_id", userID))
		return c.Send("Произошла ошибка. Попробуйте позже.")
	}
	if !st.Allowed {
		return h.sendQuotaExceeded(c, st.Used, st.Limit)
	}

	// The edit flow needs a result to rework.
	if flow == fsm.FlowEdit && h.sessions.LastResult(userID) == nil {
		return c.Respond(&tele.CallbackResponse{
			Text:      "Сначала сгенерируй что-нибудь",
			ShowAlert: true,
		})
	}

	out, err := h.sessions.Start(userID, flow)
	if err != nil {
		h.logger.Error("Failed to start flow", zap.Error(err), zap.String("flow", string(flow)))
		return c.Send("Произошла ошибка. Попробуйте позже.")
	}

	return h.sendStep(c, out)
}

// handleText feeds free text into the active flow. Text outside a flow gets
// the main menu.
func (h *Handler) handleText(c tele.Context) error {
	userID := c.Sender().ID

	out, active := h.sessions.Input(userID, c.Text())
	if !active {
		return c.Send("🏠 Главное меню\n\nЧто создаём сегодня?", h.mainMenuMarkup(userID))
	}
	return h.advance(c, out)
}

// feedChoice feeds a button choice into the active flow
func (h *Handler) feedChoice(c tele.Context, choice string) error {
	userID := c.Sender().ID

	out, active := h.sessions.Input(userID, choice)
	if !active {
		return c.Respond(&tele.CallbackResponse{Text: "Шаг уже не актуален"})
	}
	if err := c.Respond(); err != nil {
		h.logger.Warn("Failed to acknowledge callback", zap.Error(err))
	}
	return h.advance(c, out)
}

// advance reacts to a flow outcome: re-prompt, ask the next question, or
// finish the flow with a generation
func (h *Handler) advance(c tele.Context, out fsm.Outcome) error {
	if out.Invalid {
		return h.sendStep(c, out)
	}
	if out.Done {
		return h.finishFlow(c, out)
	}
	return h.sendStep(c, out)
}

// sendStep asks the current question, rendering choices as buttons
func (h *Handler) sendStep(c tele.Context, out fsm.Outcome) error {
	text := out.Prompt
	if out.Invalid {
		text = "Не понял 🤔 Попробуй ещё раз.\n\n" + out.Prompt
	}

	markup := cancelMarkup()
	if len(out.Choices) > 0 {
		markup = styleMarkup()
	}
	return c.Send(text, markup)
}

// styleMarkup offers the post style choices
func styleMarkup() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	menu.Inline(
		menu.Row(
			menu.Data("😄 Фан", "style_fun"),
			menu.Data("💼 Про", "style_pro"),
		),
		menu.Row(
			menu.Data("💰 Продающий", "style_sales"),
			menu.Data("🔥 Вирусный", "style_viral"),
		),
		menu.Row(btnCancel),
	)
	return menu
}

// finishFlow runs the generation for a completed flow
func (h *Handler) finishFlow(c tele.Context, out fsm.Outcome) error {
	userID := c.Sender().ID

	if err := c.Notify(tele.Typing); err != nil {
		h.logger.Debug("Failed to send typing action", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	var (
		kind   domain.ContentKind
		prompt string
		text   string
		err    error
	)

	switch out.Flow {
	case fsm.FlowStyle:
		kind = domain.KindStyle
		text, err = h.generation.AnalyzeStyle(ctx, userID, out.Fields["examples"])
		if err == nil {
			return c.Send("🤖 Твой стиль:\n\n"+text+"\n\nТеперь я буду учитывать его в генерациях.",
				h.mainMenuMarkup(userID))
		}
	case fsm.FlowEdit:
		last := h.sessions.LastResult(userID)
		if last == nil {
			return c.Send("Сначала сгенерируй что-нибудь.", h.mainMenuMarkup(userID))
		}
		kind = last.Kind
		prompt = last.Prompt +
			"\n\nТекущий вариант:\n" + last.Content +
			"\n\nВнеси правки (обязательно): " + out.Fields["instructions"]
		text, err = h.generation.Run(ctx, userID, kind, prompt)
	default:
		kind = out.Flow.Kind()
		prompt = fsm.BuildPrompt(out.Flow, out.Fields)
		text, err = h.generation.Run(ctx, userID, kind, prompt)
	}

	if err != nil {
		return h.sendGenerationError(c, err)
	}

	h.sessions.SetLastResult(userID, &fsm.Result{Kind: kind, Prompt: prompt, Content: text})
	return c.Send(text, resultMarkup())
}

// handleRegenerate reruns the last generation with the same prompt
func (h *Handler) handleRegenerate(c tele.Context) error {
	userID := c.Sender().ID

	last := h.sessions.LastResult(userID)
	if last == nil || last.Prompt == "" {
		return c.Respond(&tele.CallbackResponse{
			Text:      "Сначала сгенерируй что-нибудь",
			ShowAlert: true,
		})
	}
	if err := c.Respond(); err != nil {
		h.logger.Warn("Failed to acknowledge callback", zap.Error(err))
	}
	if err := c.Notify(tele.Typing); err != nil {
		h.logger.Debug("Failed to send typing action", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	text, err := h.generation.Run(ctx, userID, last.Kind, last.Prompt)
	if err != nil {
		return h.sendGenerationError(c, err)
	}

	h.sessions.SetLastResult(userID, &fsm.Result{Kind: last.Kind, Prompt: last.Prompt, Content: text})
	return c.Send(text, resultMarkup())
}

// handleSaveResult keeps the last generation in the saved list
func (h *Handler) handleSaveResult(c tele.Context) error {
	userID := c.Sender().ID

	last := h.sessions.LastResult(userID)
	if last == nil {
		return c.Respond(&tele.CallbackResponse{
			Text:      "Нечего сохранять",
			ShowAlert: true,
		})
	}

	if err := h.generation.Save(userID, last.Kind, last.Prompt, last.Content); err != nil {
		h.logger.Error("Failed to save content", zap.Error(err), zap.Int64("user_id", userID))
		return c.Respond(&tele.CallbackResponse{Text: "Не удалось сохранить"})
	}
	return c.Respond(&tele.CallbackResponse{Text: "💾 Сохранено"})
}

// handleCancel aborts the active flow
func (h *Handler) handleCancel(c tele.Context) error {
	userID := c.Sender().ID

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

// sendQuotaExceeded tells the user the day's allowance is spent
func (h *Handler) sendQuotaExceeded(c tele.Context, used, limit int) error {
	markup := &tele.ReplyMarkup{}
	markup.Inline(
		markup.Row(btnSubscribe),
		markup.Row(btnMainMenu),
	)
	return c.Send(fmt.Sprintf(
		"😔 Лимит на сегодня исчерпан (%d из %d).\n\nОформи подписку, чтобы генерировать больше.",
		used, limit,
	), markup)
}

// sendGenerationError renders a generation failure for the user
func (h *Handler) sendGenerationError(c tele.Context, err error) error {
	userID := c.Sender().ID

	switch {
	case errors.Is(err, domain.ErrQuotaExceeded):
		h.logger.Info("Generation denied at entry", zap.Int64("user_id", userID))
		markup := &tele.ReplyMarkup{}
		markup.Inline(markup.Row(btnSubscribe), markup.Row(btnMainMenu))
		return c.Send("😔 Лимит на сегодня исчерпан.\n\nОформи подписку, чтобы генерировать больше.", markup)
	case errors.Is(err, domain.ErrQuotaRaced):
		h.logger.Info("Generation raced out of quota", zap.Int64("user_id", userID))
		return c.Send("😔 Пока мы генерировали, лимит на сегодня закончился.", h.mainMenuMarkup(userID))
	case errors.Is(err, domain.ErrEmptyResult):
		h.logger.Warn("Provider returned empty result", zap.Int64("user_id", userID))
		return c.Send("Не получилось сгенерировать. Попытка не потрачена, попробуй ещё раз.", h.mainMenuMarkup(userID))
	case errors.Is(err, domain.ErrProviderUnavailable):
		h.logger.Warn("Provider unavailable", zap.Error(err), zap.Int64("user_id", userID))
		return c.Send("Сервис генерации сейчас недоступен. Попытка не потрачена, попробуй позже.", h.mainMenuMarkup(userID))
	default:
		h.logger.Error("Generation failed", zap.Error(err), zap.Int64("user_id", userID))
		return c.Send("Произошла ошибка. Попробуйте позже.", h.mainMenuMarkup(userID))
	}
}
