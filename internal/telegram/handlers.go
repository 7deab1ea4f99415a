package telegram

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/mixelka/otpfill/internal/email"
	"github.com/mixelka/otpfill/internal/formatter"
	"github.com/mixelka/otpfill/internal/messaging"
	appmodels "github.com/mixelka/otpfill/pkg/models"
)

const helpText = `<b>OTP fill</b>

Finds verification codes sent to your linked accounts in the last 10 minutes.

<b>Commands:</b>
/codes - scan all accounts
/codes email - scan one account
/accounts - list linked accounts

Tap <b>Fill</b> under a code to enter it on the active page.`

// handleHelp handles /start and /help
func (b *Bot) handleHelp(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	msg := update.Message
	if !b.allowed(msg.Chat.ID) {
		return
	}

	b.sendMessage(ctx, msg.Chat.ID, helpText)
}

// handleCodes handles /codes [email]
func (b *Bot) handleCodes(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	msg := update.Message
	if !b.allowed(msg.Chat.ID) {
		return
	}

	var filterEmail string
	if parts := strings.Fields(msg.Text); len(parts) > 1 {
		filterEmail = parts[1]
	}

	b.sendCodes(ctx, msg.Chat.ID, filterEmail)
}

// handleAccounts handles /accounts
func (b *Bot) handleAccounts(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	msg := update.Message
	if !b.allowed(msg.Chat.ID) {
		return
	}

	resp := b.dispatcher.Dispatch(ctx, messaging.Request{Type: messaging.GetAccounts})
	if !resp.OK {
		b.sendMessage(ctx, msg.Chat.ID, "Failed to list accounts: "+resp.Error)
		return
	}

	b.sendMessage(ctx, msg.Chat.ID, b.formatter.FormatAccounts(resp.Accounts))
}

// sendCodes scans and posts the result with fill buttons
func (b *Bot) sendCodes(ctx context.Context, chatID int64, filterEmail string) {
	resp := b.dispatcher.Dispatch(ctx, messaging.Request{Type: messaging.GetOTP, FilterEmail: filterEmail})
	if !resp.OK {
		text := "Scan failed: " + resp.Error
		if resp.Error == email.ErrNoAccounts.Error() {
			text = b.formatter.FormatAccounts(nil)
		}
		b.sendMessage(ctx, chatID, text)
		return
	}

	b.rememberAll(resp.Codes)
	text := b.formatter.FormatCodes("OTP codes", resp.Codes)
	keyboard := formatter.BuildCodesKeyboard(resp.Codes, filterEmail)
	b.sendMessageWithKeyboard(ctx, chatID, text, keyboard)
}

// handleCallback handles inline button callbacks
func (b *Bot) handleCallback(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	callback := update.CallbackQuery
	if callback == nil {
		return
	}

	msg := callback.Message.Message
	if msg == nil || !b.allowed(msg.Chat.ID) {
		b.answerCallback(ctx, callback.ID, "Not allowed", false)
		return
	}

	data, err := formatter.DecodeCallback(callback.Data)
	if err != nil {
		b.logger.Error("failed to decode callback", "error", err, "data", callback.Data)
		b.answerCallback(ctx, callback.ID, "Error", false)
		return
	}

	switch data.Action {
	case appmodels.CallbackFillCode:
		b.handleFill(ctx, callback, data)
	case appmodels.CallbackRescan:
		b.answerCallback(ctx, callback.ID, "Scanning...", false)
		b.sendCodes(ctx, msg.Chat.ID, data.Email)
	default:
		b.answerCallback(ctx, callback.ID, "Unknown action", false)
	}
}

// handleFill fills the code into the active page
func (b *Bot) handleFill(ctx context.Context, callback *models.CallbackQuery, data appmodels.CallbackData) {
	resp := b.dispatcher.Dispatch(ctx, messaging.Request{Type: messaging.FillCode, Code: data.Code})
	if !resp.OK {
		b.answerCallback(ctx, callback.ID, resp.Error, true)
		return
	}

	text := resp.Message
	if text == "" {
		text = "Filled " + data.Code
	}
	b.answerCallback(ctx, callback.ID, text, false)
}

func (b *Bot) allowed(chatID int64) bool {
	if chatID != b.chatID {
		b.logger.Debug("ignoring chat", "chat_id", chatID)
		return false
	}
	return true
}
