package handler

import (
	"time"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"contentgpt/internal/fsm"
	"contentgpt/internal/service"
)

// Handler manages all bot interactions
type Handler struct {
	bot         *tele.Bot
	quota       *service.QuotaService
	generation  *service.GenerationService
	payments    *service.PaymentService
	maintenance *service.MaintenanceService
	sessions    *fsm.Engine
	adminID     int64
	timeout     time.Duration
	logger      *zap.Logger
}

// NewHandler creates a new handler instance
func NewHandler(
	bot *tele.Bot,
	quota *service.QuotaService,
	generation *service.GenerationService,
	payments *service.PaymentService,
	maintenance *service.MaintenanceService,
	sessions *fsm.Engine,
	adminID int64,
	timeout time.Duration,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		bot:         bot,
		quota:       quota,
		generation:  generation,
		payments:    payments,
		maintenance: maintenance,
		sessions:    sessions,
		adminID:     adminID,
		timeout:     timeout,
		logger:      logger,
	}
}

// RegisterHandlers registers all bot handlers
func (h *Handler) RegisterHandlers() {
	// Commands
	h.bot.Handle("/start", h.handleStart)
	h.bot.Handle("/help", h.handleHelp)
	h.bot.Handle("/profile", h.handleProfile)
	h.bot.Handle("/cancel", h.handleCancel)
	h.bot.Handle("/stats", h.handleStats)

	// Text messages feed the active conversation flow
	h.bot.Handle(tele.OnText, h.handleText)

	// Payments
	h.bot.Handle(tele.OnCheckout, h.handleCheckout)
	h.bot.Handle(tele.OnPayment, h.handleStarsPaid)

	// Callback queries (inline buttons)
	h.bot.Handle(tele.OnCallback, h.handleCallback)
}

// Inline keyboard buttons
var (
	btnNewPost = tele.Btn{
		Unique: "gen_post",
		Text:   "📝 Пост",
	}
	btnNewStory = tele.Btn{
		Unique: "gen_story",
		Text:   "📱 История",
	}
	btnNewIdeas = tele.Btn{
		Unique: "gen_ideas",
		Text:   "💡 Идеи",
	}
	btnNewCaption = tele.Btn{
		Unique: "gen_caption",
		Text:   "💬 Подпись",
	}
	btnMyStyle = tele.Btn{
		Unique: "gen_style",
		Text:   "🤖 Мой стиль",
	}
	btnProfile = tele.Btn{
		Unique: "profile",
		Text:   "👤 Профиль",
	}
	btnSaved = tele.Btn{
		Unique: "saved",
		Text:   "📂 Сохранённое",
	}
	btnSubscribe = tele.Btn{
		Unique: "subscribe",
		Text:   "💳 Подписка",
	}
	btnCancel = tele.Btn{
		Unique: "cancel",
		Text:   "❌ Отменить",
	}
	btnMainMenu = tele.Btn{
		Unique: "main_menu",
		Text:   "🏠 Меню",
	}
	btnSaveResult = tele.Btn{
		Unique: "save_result",
		Text:   "💾 Сохранить",
	}
	btnEditResult = tele.Btn{
		Unique: "edit_result",
		Text:   "✏️ Правки",
	}
	btnRegenerate = tele.Btn{
		Unique: "regen",
		Text:   "🔄 Ещё раз",
	}
	btnAdminStats = tele.Btn{
		Unique: "admin_stats",
		Text:   "📊 Статистика",
	}
)

// mainMenuMarkup returns the main menu keyboard
func (h *Handler) mainMenuMarkup(userID int64) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	rows := []tele.Row{
		menu.Row(btnNewPost, btnNewStory),
		menu.Row(btnNewIdeas, btnNewCaption),
		menu.Row(btnMyStyle, btnSaved),
		menu.Row(btnProfile, btnSubscribe),
	}
	if userID == h.adminID {
		rows = append(rows, menu.Row(btnAdminStats))
	}
	menu.Inline(rows...)
	return menu
}

// resultMarkup returns the keyboard attached to every generation result
func resultMarkup() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	menu.Inline(
		menu.Row(btnSaveResult, btnEditResult),
		menu.Row(btnRegenerate, btnMainMenu),
	)
	return menu
}

// cancelMarkup returns the keyboard shown during a flow
func cancelMarkup() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	menu.Inline(menu.Row(btnCancel))
	return menu
}
