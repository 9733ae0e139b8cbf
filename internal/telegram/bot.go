// Package telegram mirrors the planner into a Telegram chat: today's meals,
// the weekly plan, the shopping list and recipe import from links.
package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"meal-planner/internal/config"
	"meal-planner/internal/logger"
	"meal-planner/internal/metrics"
	"meal-planner/internal/planner"
	"meal-planner/internal/recipe"
	"meal-planner/internal/shopping"
)

const (
	callbackRegenerate = "regenerate"
	callbackNextWeek   = "next-week"

	requestTimeout = 2 * time.Minute
)

// PlanService is the plan API the bot reads and regenerates.
type PlanService interface {
	Current(ctx context.Context) (*planner.WeeklyPlan, error)
	Generate(ctx context.Context, start *planner.Date) (*planner.WeeklyPlan, error)
	Today(ctx context.Context) (*planner.Day, error)
}

// ShoppingService computes the merged shopping list.
type ShoppingService interface {
	View(ctx context.Context, lang recipe.Language) (*shopping.View, error)
}

// RecipeSaver stores imported recipes.
type RecipeSaver interface {
	Create(ctx context.Context, r recipe.Recipe) (*recipe.Recipe, error)
}

// Extractor turns a link into a recipe draft.
type Extractor interface {
	Extract(ctx context.Context, sourceURL string) (*recipe.Recipe, error)
}

// Sender is the part of the Telegram API the bot talks to.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Deps are the services the bot works on. Extractor may be nil.
type Deps struct {
	Plans     PlanService
	Shopping  ShoppingService
	Recipes   RecipeSaver
	Extractor Extractor
	DataDir   string
	Now       func() time.Time
}

// Bot wraps the Telegram API and the planner services.
type Bot struct {
	api     Sender
	deps    Deps
	allowed []int64
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(cfg *config.Config, deps Deps) (*Bot, error) {
	if err := cfg.RequireTelegram(); err != nil {
		return nil, err
	}
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	slog.Info("Authorized on Telegram", "account", api.Self.UserName)

	wh, err := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook url: %w", err)
	}
	resp, err := api.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	slog.Info("Webhook set", "description", resp.Description)

	return newBot(api, deps, cfg.TelegramAllowedUserIDs), nil
}

func newBot(api Sender, deps Deps, allowed []int64) *Bot {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Bot{api: api, deps: deps, allowed: allowed}
}

// RegisterHandlers registers the webhook and health handlers on mux.
func (b *Bot) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/webhook", b.handleWebhook)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		slog.Warn("Error parsing update", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)

	// Telegram retries updates that are not acknowledged quickly.
	go b.HandleUpdate(update)
}

// HandleUpdate processes one update synchronously.
func (b *Bot) HandleUpdate(update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		if b.isAllowed(update.CallbackQuery.From) {
			b.handleCallbackQuery(update.CallbackQuery)
		}
	case update.Message != nil:
		if !b.isAllowed(update.Message.From) {
			return
		}
		b.processMessage(update.Message)
	}
}

func (b *Bot) isAllowed(from *tgbotapi.User) bool {
	if from == nil {
		return false
	}
	if slices.Contains(b.allowed, from.ID) {
		return true
	}
	slog.Warn("Unauthorized access attempt", "user_id", from.ID, "username", from.UserName)
	return false
}

func (b *Bot) context() (context.Context, context.CancelFunc) {
	ctx := logger.WithRequestID(context.Background(), logger.GenerateRequestID())
	return context.WithTimeout(ctx, requestTimeout)
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	ctx, cancel := b.context()
	defer cancel()
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	if strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://") {
		b.handleImport(ctx, chatID, strings.Fields(text)[0])
		return
	}

	switch msg.Command() {
	case "today":
		b.handleToday(ctx, chatID)
	case "plan":
		b.handlePlan(ctx, chatID)
	case "generate":
		b.handleGenerate(ctx, chatID, 0, msg.CommandArguments())
	case "shopping":
		b.handleShopping(ctx, chatID, msg.CommandArguments())
	case "health":
		b.send(chatID, formatHealth(metrics.GetSysHealth(b.deps.DataDir)))
	default:
		b.send(chatID, helpText)
	}
}

func (b *Bot) handleToday(ctx context.Context, chatID int64) {
	day, err := b.deps.Plans.Today(ctx)
	if err != nil {
		b.sendError(ctx, chatID, "loading today's meals", err)
		return
	}
	b.send(chatID, formatToday(day))
}

func (b *Bot) handlePlan(ctx context.Context, chatID int64) {
	plan, err := b.deps.Plans.Current(ctx)
	if err != nil {
		b.sendError(ctx, chatID, "loading the plan", err)
		return
	}
	msg := tgbotapi.NewMessage(chatID, formatPlan(plan))
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = planKeyboard()
	b.deliver(msg)
}

// handleGenerate builds a plan and shows it. A non-zero messageID edits
// that message instead of sending a new one.
func (b *Bot) handleGenerate(ctx context.Context, chatID int64, messageID int, arg string) {
	var start *planner.Date
	if arg = strings.TrimSpace(arg); arg != "" {
		d, _ := planner.ParseDate(arg, b.deps.Now())
		start = &d
	}

	plan, err := b.deps.Plans.Generate(ctx, start)
	if err != nil {
		b.sendError(ctx, chatID, "generating the plan", err)
		return
	}
	text := formatPlan(plan)
	if messageID != 0 {
		edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
		edit.ParseMode = tgbotapi.ModeMarkdown
		kb := planKeyboard()
		edit.ReplyMarkup = &kb
		b.deliver(edit)
		return
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = planKeyboard()
	b.deliver(msg)
}

func (b *Bot) handleShopping(ctx context.Context, chatID int64, arg string) {
	view, err := b.deps.Shopping.View(ctx, recipe.ParseLanguage(arg))
	if err != nil {
		b.sendError(ctx, chatID, "building the shopping list", err)
		return
	}
	b.send(chatID, formatShopping(view))
}

func (b *Bot) handleImport(ctx context.Context, chatID int64, link string) {
	if b.deps.Extractor == nil {
		b.send(chatID, "❌ Recipe import is not configured.")
		return
	}

	status := tgbotapi.NewMessage(chatID, "✂️ *Clipping recipe...*")
	status.ParseMode = tgbotapi.ModeMarkdown
	sent, err := b.api.Send(status)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to send initial reply", "error", err)
		return
	}

	var text string
	draft, err := b.deps.Extractor.Extract(ctx, link)
	if err == nil {
		var saved *recipe.Recipe
		if saved, err = b.deps.Recipes.Create(ctx, *draft); err == nil {
			text = formatImported(saved)
		}
	}
	if err != nil {
		logger.FromContext(ctx).Warn("Recipe import failed", "source_url", link, "error", err)
		text = fmt.Sprintf("❌ *Error clipping recipe:*\n%s", escape(err.Error()))
	}

	edit := tgbotapi.NewEditMessageText(chatID, sent.MessageID, text)
	edit.ParseMode = tgbotapi.ModeMarkdown
	b.deliver(edit)
}

func (b *Bot) handleCallbackQuery(query *tgbotapi.CallbackQuery) {
	ctx, cancel := b.context()
	defer cancel()

	// Answer callback to remove spinner
	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		logger.FromContext(ctx).Warn("Failed to answer callback", "error", err)
	}
	if query.Message == nil || query.Message.Chat == nil {
		return
	}
	chatID, messageID := query.Message.Chat.ID, query.Message.MessageID

	switch query.Data {
	case callbackRegenerate:
		b.handleGenerate(ctx, chatID, messageID, "")
	case callbackNextWeek:
		next := planner.WeekStart(b.deps.Now()).AddDays(7)
		b.handleGenerate(ctx, chatID, messageID, next.String())
	}
}

func planKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Regenerate", callbackRegenerate),
			tgbotapi.NewInlineKeyboardButtonData("⏭️ Plan next week", callbackNextWeek),
		),
	)
}

func (b *Bot) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	b.deliver(msg)
}

func (b *Bot) sendError(ctx context.Context, chatID int64, action string, err error) {
	logger.FromContext(ctx).Error("Bot request failed", "action", action, "error", err)
	b.send(chatID, fmt.Sprintf("❌ *Error %s:*\n%s", action, escape(err.Error())))
}

func (b *Bot) deliver(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		slog.Error("Failed to send telegram message", "error", err)
	}
}
