package telegram

import (
	"context"
	"fmt"
	"time"

	"github.com/mixelka/otpfill/internal/formatter"
	appmodels "github.com/mixelka/otpfill/pkg/models"
)

// seenTTL is how long a notified code is remembered
const seenTTL = time.Hour

// NotifyCodes posts candidates that were not reported before. It is the
// background poller's callback.
func (b *Bot) NotifyCodes(ctx context.Context, candidates []appmodels.Candidate) {
	fresh := b.rememberAll(candidates)
	if len(fresh) == 0 {
		return
	}

	text := b.formatter.FormatCodes(fmt.Sprintf("%d new code(s)", len(fresh)), fresh)
	keyboard := formatter.BuildCodesKeyboard(fresh, "")
	if _, err := b.sendMessageWithKeyboard(ctx, b.chatID, text, keyboard); err != nil {
		return
	}

	b.logger.Info("codes notified", "count", len(fresh))
}

// rememberAll marks candidates as seen and returns the ones that were not
func (b *Bot) rememberAll(candidates []appmodels.Candidate) []appmodels.Candidate {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	for key, at := range b.seen {
		if now.Sub(at) > seenTTL {
			delete(b.seen, key)
		}
	}

	var fresh []appmodels.Candidate
	for _, c := range candidates {
		key := candidateKey(c)
		if _, ok := b.seen[key]; ok {
			continue
		}
		b.seen[key] = now
		fresh = append(fresh, c)
	}
	return fresh
}

func candidateKey(c appmodels.Candidate) string {
	return fmt.Sprintf("%s|%s|%d", c.AccountEmail, c.Code, c.TimestampMs)
}
