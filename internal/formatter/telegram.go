package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/mixelka/otpfill/pkg/models"
)

// TelegramFormatter formats codes and accounts for Telegram
type TelegramFormatter struct {
	maxLength int
	now       func() time.Time
}

// NewTelegramFormatter creates a new Telegram formatter
func NewTelegramFormatter() *TelegramFormatter {
	return &TelegramFormatter{
		maxLength: 4000, // Leave room for markup
		now:       time.Now,
	}
}

// FormatCodes lists candidates newest first, one per line
func (f *TelegramFormatter) FormatCodes(title string, candidates []models.Candidate) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("<b>%s</b>\n", f.escapeHTML(title)))
	if len(candidates) == 0 {
		sb.WriteString("\nNo OTP codes found in the last 10 minutes.")
		return sb.String()
	}

	for _, c := range candidates {
		line := fmt.Sprintf("\n<code>%s</code> from %s\n<i>%s · %s</i>\n",
			f.escapeHTML(c.Code),
			f.escapeHTML(c.SenderName),
			f.escapeHTML(c.AccountEmail),
			f.age(c.TimestampMs),
		)
		if sb.Len()+len(line) > f.maxLength {
			sb.WriteString("\n<i>... (list truncated)</i>")
			break
		}
		sb.WriteString(line)
	}

	return sb.String()
}

// FormatAccounts lists linked accounts
func (f *TelegramFormatter) FormatAccounts(accounts []models.AccountInfo) string {
	if len(accounts) == 0 {
		return "No accounts linked. Run <code>otpctl add</code> to link one."
	}

	var sb strings.Builder
	sb.WriteString("<b>Linked accounts</b>\n\n")
	for _, account := range accounts {
		if account.Name != "" && account.Name != account.Email {
			sb.WriteString(fmt.Sprintf("%s &lt;%s&gt;\n", f.escapeHTML(account.Name), f.escapeHTML(account.Email)))
		} else {
			sb.WriteString(f.escapeHTML(account.Email) + "\n")
		}
	}
	return sb.String()
}

// age renders how long ago a delivery time was
func (f *TelegramFormatter) age(timestampMs int64) string {
	elapsed := f.now().Sub(time.UnixMilli(timestampMs))
	switch {
	case elapsed < time.Minute:
		return "just now"
	case elapsed < time.Hour:
		return fmt.Sprintf("%d min ago", int(elapsed.Minutes()))
	default:
		return time.UnixMilli(timestampMs).Format("02.01.2006 15:04")
	}
}

// escapeHTML escapes HTML special characters for Telegram
func (f *TelegramFormatter) escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}
