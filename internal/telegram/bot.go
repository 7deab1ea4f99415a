package telegram

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/mixelka/otpfill/internal/formatter"
	"github.com/mixelka/otpfill/internal/messaging"
)

// Dispatcher answers surface requests
type Dispatcher interface {
	Dispatch(ctx context.Context, req messaging.Request) messaging.Response
}

// Bot represents the Telegram bot
type Bot struct {
	bot        *bot.Bot
	chatID     int64
	dispatcher Dispatcher
	formatter  *formatter.TelegramFormatter
	logger     *slog.Logger

	mu   sync.Mutex
	seen map[string]time.Time // Notified codes by candidate key
	now  func() time.Time
}

// BotDeps dependencies for creating a bot
type BotDeps struct {
	Token      string
	ChatID     int64 // The only chat the bot talks to
	Dispatcher Dispatcher
	Formatter  *formatter.TelegramFormatter
	Logger     *slog.Logger
	Options    []bot.Option
}

// NewBot creates a new Telegram bot
func NewBot(deps BotDeps) (*Bot, error) {
	b := &Bot{
		chatID:     deps.ChatID,
		dispatcher: deps.Dispatcher,
		formatter:  deps.Formatter,
		logger:     deps.Logger.With("component", "telegram_bot"),
		seen:       make(map[string]time.Time),
		now:        time.Now,
	}

	opts := append([]bot.Option{
		bot.WithDefaultHandler(b.defaultHandler),
	}, deps.Options...)

	tgBot, err := bot.New(deps.Token, opts...)
	if err != nil {
		return nil, err
	}

	b.bot = tgBot
	b.registerHandlers()

	return b, nil
}

// registerHandlers registers command handlers
func (b *Bot) registerHandlers() {
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/codes", bot.MatchTypePrefix, b.handleCodes)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/accounts", bot.MatchTypePrefix, b.handleAccounts)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypePrefix, b.handleHelp)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypePrefix, b.handleHelp)
	b.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "", bot.MatchTypePrefix, b.handleCallback)
}

// Start starts the bot
func (b *Bot) Start(ctx context.Context) {
	b.logger.Info("starting telegram bot")
	b.bot.Start(ctx)
}

// defaultHandler handles unknown messages
func (b *Bot) defaultHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	// Ignore non-message updates and messages without text
	if update.Message == nil {
		return
	}

	// Log unknown commands
	if update.Message.Text != "" && update.Message.Text[0] == '/' {
		b.logger.Debug("unknown command", "text", update.Message.Text)
	}
}
