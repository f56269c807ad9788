package handler

import (
	"strings"
	"unicode"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"contentgpt/internal/fsm"
)

// cleanCallbackData removes all non-printable characters from callback data
func cleanCallbackData(data string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) {
			return r
		}
		return -1
	}, strings.TrimSpace(data))
}

// handleEditError handles errors from c.Edit() - if message is not modified,
// just acknowledge the callback; otherwise acknowledge and return the error
// so the caller can send a new message
func (h *Handler) handleEditError(err error, c tele.Context, userID int64) error {
	if err == nil {
		return nil
	}

	if strings.Contains(err.Error(), "message is not modified") {
		h.logger.Debug("Message already modified by another callback, acknowledging",
			zap.Int64("user_id", userID),
		)
		c.Respond()
		return nil
	}

	h.logger.Warn("Failed to edit message, sending new",
		zap.Error(err),
		zap.Int64("user_id", userID),
	)
	if ackErr := c.Respond(); ackErr != nil {
		h.logger.Warn("Failed to acknowledge callback", zap.Error(ackErr))
	}
	return err
}

// handleCallback handles ALL callback queries
func (h *Handler) handleCallback(c tele.Context) error {
	callback := c.Callback()
	if callback == nil {
		h.logger.Warn("handleCallback: callback is nil")
		return nil
	}

	key := callback.Unique
	if key == "" {
		key = cleanCallbackData(callback.Data)
	}

	h.logger.Debug("Processing callback",
		zap.String("key", key),
		zap.Int64("user_id", c.Sender().ID),
	)

	switch key {
	case "gen_post":
		return h.startFlow(c, fsm.FlowPost)
	case "gen_story":
		return h.startFlow(c, fsm.FlowStory)
	case "gen_ideas":
		return h.startFlow(c, fsm.FlowIdeas)
	case "gen_caption":
		return h.startFlow(c, fsm.FlowCaption)
	case "gen_style":
		return h.startFlow(c, fsm.FlowStyle)
	case "edit_result":
		return h.startFlow(c, fsm.FlowEdit)
	case "regen":
		return h.handleRegenerate(c)
	case "save_result":
		return h.handleSaveResult(c)
	case "profile":
		return h.handleProfile(c)
	case "saved":
		return h.handleSaved(c)
	case "subscribe":
		return h.handleSubscribe(c)
	case "cancel":
		return h.handleCancel(c)
	case "main_menu":
		return h.handleStart(c)
	case "admin_stats":
		return h.handleStats(c)
	}

	// Dynamic buttons carry their argument after the prefix.
	switch {
	case strings.HasPrefix(key, "style_"):
		return h.feedChoice(c, strings.TrimPrefix(key, "style_"))
	case strings.HasPrefix(key, "payyk_"):
		return h.handlePayCard(c, strings.TrimPrefix(key, "payyk_"))
	case strings.HasPrefix(key, "paystars_"):
		return h.handlePayStars(c, strings.TrimPrefix(key, "paystars_"))
	case strings.HasPrefix(key, "ykcheck_"):
		return h.handleCheckCard(c, strings.TrimPrefix(key, "ykcheck_"))
	}

	h.logger.Warn("Unhandled callback",
		zap.String("key", key),
		zap.String("data", callback.Data),
	)
	return c.Respond()
}
