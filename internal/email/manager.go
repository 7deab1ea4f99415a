package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/mixelka/otpfill/pkg/models"
)

// ErrNoAccounts is returned by ScanAll when no account is linked
var ErrNoAccounts = errors.New("no_accounts")

// AccountLister lists linked accounts
type AccountLister interface {
	ListAccounts(ctx context.Context) ([]*models.Account, error)
}

// TokenProvider hands out a usable bearer token for an account
type TokenProvider interface {
	GetValidToken(ctx context.Context, account *models.Account) (string, error)
}

// MailScanner scans one mailbox
type MailScanner interface {
	Scan(ctx context.Context, token, accountEmail string) ([]models.Candidate, error)
}

// Manager scans all linked accounts and ranks what they yield
type Manager struct {
	accounts AccountLister
	tokens   TokenProvider
	scanner  MailScanner
	logger   *slog.Logger
}

// NewManager creates a new scan manager
func NewManager(accounts AccountLister, tokens TokenProvider, scanner MailScanner, logger *slog.Logger) *Manager {
	return &Manager{
		accounts: accounts,
		tokens:   tokens,
		scanner:  scanner,
		logger:   logger.With("component", "email_manager"),
	}
}

// ScanAll scans every account, or only the one whose email equals
// filterEmail, one after another. A failing account is logged and
// contributes nothing. Candidates come back newest first.
func (m *Manager) ScanAll(ctx context.Context, filterEmail string) ([]models.Candidate, error) {
	accounts, err := m.accounts.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	if len(accounts) == 0 {
		return nil, ErrNoAccounts
	}

	candidates := []models.Candidate{}
	for _, account := range accounts {
		if filterEmail != "" && account.Email != filterEmail {
			continue
		}

		found, err := m.scanAccount(ctx, account)
		if err != nil {
			m.logger.Warn("account scan failed", "email", account.Email, "error", err)
			continue
		}
		candidates = append(candidates, found...)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].TimestampMs > candidates[j].TimestampMs
	})

	return candidates, nil
}

func (m *Manager) scanAccount(ctx context.Context, account *models.Account) ([]models.Candidate, error) {
	token, err := m.tokens.GetValidToken(ctx, account)
	if err != nil {
		return nil, err
	}

	return m.scanner.Scan(ctx, token, account.Email)
}
