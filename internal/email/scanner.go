package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mixelka/otpfill/internal/parser"
	"github.com/mixelka/otpfill/pkg/models"
)

// ScannerConfig configuration for a Scanner
type ScannerConfig struct {
	Window      time.Duration // How far back to look
	MaxMessages int64         // Newest messages considered per scan
}

// Scanner finds verification codes in the recent mail of one account
type Scanner struct {
	provider  Provider
	extractor *parser.Extractor
	html      *parser.HTMLParser
	config    ScannerConfig
	logger    *slog.Logger
	now       func() time.Time
}

// NewScanner creates a new scanner
func NewScanner(provider Provider, cfg ScannerConfig, logger *slog.Logger) *Scanner {
	if cfg.Window <= 0 {
		cfg.Window = 10 * time.Minute
	}
	if cfg.MaxMessages <= 0 {
		cfg.MaxMessages = 10
	}

	return &Scanner{
		provider:  provider,
		extractor: parser.NewExtractor(),
		html:      parser.NewHTMLParser(),
		config:    cfg,
		logger:    logger.With("component", "scanner"),
		now:       time.Now,
	}
}

// Scan returns one candidate per recent message that passes the subject
// check and contains a code. Provider errors abort the scan.
func (s *Scanner) Scan(ctx context.Context, token, accountEmail string) ([]models.Candidate, error) {
	session, err := s.provider.Open(ctx, token, accountEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to open mailbox: %w", err)
	}
	defer session.Close()

	after := s.now().Add(-s.config.Window)
	ids, err := session.ListRecent(ctx, after, s.config.MaxMessages)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	var candidates []models.Candidate
	for _, id := range ids {
		msg, err := session.GetMessage(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to get message %s: %w", id, err)
		}

		candidate, ok := s.inspect(msg, accountEmail)
		if !ok {
			continue
		}
		candidates = append(candidates, candidate)
	}

	s.logger.Debug("scanned mailbox",
		"email", accountEmail,
		"messages", len(ids),
		"codes", len(candidates),
	)

	return candidates, nil
}

// inspect runs the subject check and, only when it passes, the body
// decoding and extraction
func (s *Scanner) inspect(msg *Message, accountEmail string) (models.Candidate, bool) {
	if !parser.LooksLikeOTP(msg.Subject, msg.Snippet) {
		return models.Candidate{}, false
	}

	body := BodyText(msg.Payload, s.html)
	code, ok := s.extractor.Extract(msg.Subject + " " + msg.Snippet + " " + body)
	if !ok {
		return models.Candidate{}, false
	}

	sender := parser.ParseSender(msg.From)
	return models.Candidate{
		Code:         code,
		SenderName:   sender.Name,
		SenderEmail:  sender.Address,
		AccountEmail: accountEmail,
		TimestampMs:  msg.InternalDate,
	}, true
}
