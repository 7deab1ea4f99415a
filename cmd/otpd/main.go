package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"github.com/mixelka/otpfill/internal/auth"
	"github.com/mixelka/otpfill/internal/config"
	"github.com/mixelka/otpfill/internal/crypto"
	"github.com/mixelka/otpfill/internal/database"
	"github.com/mixelka/otpfill/internal/email"
	"github.com/mixelka/otpfill/internal/fill"
	"github.com/mixelka/otpfill/internal/formatter"
	"github.com/mixelka/otpfill/internal/messaging"
	"github.com/mixelka/otpfill/internal/page"
	"github.com/mixelka/otpfill/internal/telegram"
	"github.com/mixelka/otpfill/pkg/models"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup logger
	logger := setupLogger(cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting otp daemon", "provider", cfg.MailProvider)

	box, err := crypto.NewBox(cfg.EncryptionKey)
	if err != nil {
		logger.Error("failed to create token box", "error", err)
		os.Exit(1)
	}

	// Connect to database
	db, err := database.New(cfg.DatabasePath, box)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run migrations
	ctx := context.Background()
	if err := db.Migrate(ctx); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	logger.Info("database migrations completed")

	// Auth
	authorizer := auth.NewGoogleAuthorizer(auth.GoogleConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectPort: cfg.OAuthRedirectPort,
		Scopes:       auth.Scopes(cfg.UseIMAP()),
		Timeout:      cfg.AuthTimeout,
	}, logger)
	broker := auth.NewBroker(db, authorizer, auth.NewGoogleIdentity(), logger)

	// Mail
	var provider email.Provider
	if cfg.UseIMAP() {
		provider = email.NewIMAPProvider(email.IMAPConfig{
			Server:      cfg.IMAPServer,
			DialTimeout: cfg.IMAPDialTimeout,
		}, email.NewResolver(), logger)
	} else {
		provider = email.NewGmailProvider(nil)
	}
	scanner := email.NewScanner(provider, email.ScannerConfig{
		Window:      cfg.ScanWindow,
		MaxMessages: cfg.ScanMaxMessages,
	}, logger)
	manager := email.NewManager(db, broker, scanner, logger)

	// Page filling
	agent := page.NewAgent(fill.NewController(cfg.SubmitDelay, logger), logger)
	tabs := page.NewFileTabs(cfg.ActivePage, agent, logger)
	if cfg.ActivePage == "" {
		logger.Warn("ACTIVE_PAGE is not set, fill requests will report no active tab")
	}

	dispatcher := messaging.NewDispatcher(messaging.DispatcherDeps{
		Accounts: db,
		Linker:   broker,
		Scanner:  manager,
		Tabs:     tabs,
		Logger:   logger,
	})

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           messaging.NewServer(dispatcher, logger).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Setup graceful shutdown
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Codes are secrets; without a bot only their number is logged
	onCodes := func(ctx context.Context, codes []models.Candidate) {
		if len(codes) > 0 {
			logger.Info("background scan found codes", "count", len(codes))
		}
	}

	// Create bot (optional)
	if cfg.TelegramEnabled() {
		bot, err := telegram.NewBot(telegram.BotDeps{
			Token:      cfg.TelegramToken,
			ChatID:     cfg.TelegramChatID,
			Dispatcher: dispatcher,
			Formatter:  formatter.NewTelegramFormatter(),
			Logger:     logger,
		})
		if err != nil {
			logger.Error("failed to create bot", "error", err)
			os.Exit(1)
		}
		onCodes = bot.NotifyCodes
		go bot.Start(ctx)
		logger.Info("telegram notifications enabled", "chat_id", cfg.TelegramChatID)
	}

	poller := email.NewPoller(manager, cfg.PollInterval, onCodes, logger)
	go poller.Run(ctx)

	go func() {
		<-ctx.Done()
		logger.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shut down server", "error", err)
		}
	}()

	logger.Info("listening, press Ctrl+C to stop", "addr", cfg.ListenAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "error", err)
		cancel()
	}

	tabs.Wait()
	logger.Info("daemon stopped")
}

func setupLogger(level, format string) *slog.Logger {
	var handler slog.Handler
	logLevel := parseLevel(level)

	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: logLevel,
		})
	} else {
		// Pretty colored output for console
		handler = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      logLevel,
			TimeFormat: time.DateTime,
		})
	}

	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
