package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"contentgpt/internal/domain"
	"contentgpt/internal/service"
)

// handleSubscribe shows the plan picker
func (h *Handler) handleSubscribe(c tele.Context) error {
	userID := c.Sender().ID

	var b strings.Builder
	b.WriteString("💳 Подписка\n\nВыбери тариф:\n\n")
	for _, tier := range domain.PaidTiers() {
		plan := domain.PlanFor(tier)
		fmt.Fprintf(&b, "%s — %d генераций в день, %d₽ или %d⭐ в месяц\n",
			plan.Name, plan.DailyLimit, plan.Price, plan.StarsPrice)
	}

	markup := &tele.ReplyMarkup{}
	rows := []tele.Row{}
	for _, tier := range domain.PaidTiers() {
		plan := domain.PlanFor(tier)
		row := tele.Row{}
		if h.payments.CardEnabled() {
			row = append(row, markup.Data(
				fmt.Sprintf("💳 %s %d₽", plan.Name, plan.Price),
				"payyk_"+string(tier),
			))
		}
		row = append(row, markup.Data(
			fmt.Sprintf("⭐ %s %d⭐", plan.Name, plan.StarsPrice),
			"paystars_"+string(tier),
		))
		rows = append(rows, row)
	}
	rows = append(rows, markup.Row(btnMainMenu))
	markup.Inline(rows...)

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

// handlePayCard creates a card payment and hands the user the payment link
func (h *Handler) handlePayCard(c tele.Context, tierRaw string) error {
	userID := c.Sender().ID
	tier := domain.ParseTier(tierRaw)

	if err := c.Respond(); err != nil {
		h.logger.Warn("Failed to acknowledge callback", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	created, err := h.payments.StartCardPayment(ctx, userID, tier)
	if err != nil {
		if errors.Is(err, domain.ErrProviderDisabled) {
			return c.Send("Оплата картой сейчас недоступна. Попробуй оплатить звёздами ⭐")
		}
		h.logger.Error("Failed to start card payment",
			zap.Error(err),
			zap.Int64("user_id", userID),
			zap.String("tier", tierRaw),
		)
		return c.Send("Не удалось создать платёж. Попробуй позже.")
	}

	plan := domain.PlanFor(tier)
	markup := &tele.ReplyMarkup{}
	markup.Inline(
		markup.Row(markup.URL("💳 Оплатить", created.ConfirmationURL)),
		markup.Row(markup.Data("🔄 Проверить оплату", "ykcheck_"+created.ExternalID)),
	)

	return c.Send(fmt.Sprintf(
		"Подписка %s — %d₽/мес.\n\nОплати по кнопке ниже, потом нажми «Проверить оплату».",
		plan.Name, plan.Price,
	), markup)
}

// handleCheckCard polls the provider for the payment outcome on user demand
func (h *Handler) handleCheckCard(c tele.Context, externalID string) error {
	userID := c.Sender().ID

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	status, err := h.payments.CheckCardPayment(ctx, externalID)
	if err != nil {
		h.logger.Warn("Card payment check failed",
			zap.Error(err),
			zap.Int64("user_id", userID),
			zap.String("external_id", externalID),
		)
		return c.Respond(&tele.CallbackResponse{
			Text:      "Не удалось проверить платёж, попробуй чуть позже",
			ShowAlert: true,
		})
	}

	switch status {
	case domain.PaymentSucceeded:
		if err := c.Respond(&tele.CallbackResponse{Text: "✅ Оплата прошла"}); err != nil {
			h.logger.Warn("Failed to acknowledge callback", zap.Error(err))
		}
		return nil
	case domain.PaymentFailed, domain.PaymentExpired:
		return c.Respond(&tele.CallbackResponse{
			Text:      "❌ Платёж не прошёл",
			ShowAlert: true,
		})
	default:
		return c.Respond(&tele.CallbackResponse{
			Text:      "⏳ Платёж ещё не завершён",
			ShowAlert: true,
		})
	}
}

// handlePayStars sends a Telegram Stars invoice
func (h *Handler) handlePayStars(c tele.Context, tierRaw string) error {
	userID := c.Sender().ID
	tier := domain.ParseTier(tierRaw)
	plan := domain.PlanFor(tier)
	if plan.Tier == domain.TierFree || plan.StarsPrice <= 0 {
		return c.Respond(&tele.CallbackResponse{Text: "Этот тариф нельзя купить"})
	}

	payload, err := service.BuildStarsPayload(tier)
	if err != nil {
		h.logger.Error("Failed to build stars payload", zap.Error(err), zap.Int64("user_id", userID))
		return c.Respond(&tele.CallbackResponse{Text: "Произошла ошибка"})
	}

	if err := c.Respond(); err != nil {
		h.logger.Warn("Failed to acknowledge callback", zap.Error(err))
	}

	invoice := &tele.Invoice{
		Title:       "Подписка " + plan.Name,
		Description: fmt.Sprintf("%d генераций в день, 30 дней", plan.DailyLimit),
		Payload:     payload,
		Currency:    "XTR",
		Prices: []tele.Price{
			{Label: plan.Name, Amount: plan.StarsPrice},
		},
	}
	return c.Send(invoice)
}

// handleCheckout confirms the pre-checkout query. Stars invoices carry their
// own payload validation at payment time; here we only accept.
func (h *Handler) handleCheckout(c tele.Context) error {
	return c.Accept()
}

// handleStarsPaid is the push delivery for a completed Stars charge
func (h *Handler) handleStarsPaid(c tele.Context) error {
	userID := c.Sender().ID
	payment := c.Message().Payment

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	err := h.payments.HandleStarsPayment(ctx, userID,
		payment.TelegramChargeID, payment.Payload, float64(payment.Total), payment.Currency)
	if err != nil {
		// The charge already happened; never leave the user silent.
		h.logger.Error("Failed to reconcile stars payment",
			zap.Error(err),
			zap.Int64("user_id", userID),
			zap.String("charge_id", payment.TelegramChargeID),
		)
		return c.Send("Оплата получена, но активация подписки задерживается. Мы разберёмся.")
	}
	return nil
}
