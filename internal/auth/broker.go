package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/oauth2"

	"github.com/mixelka/otpfill/internal/database"
	"github.com/mixelka/otpfill/pkg/models"
)

const (
	// expiryBuffer is how long before expiry a cached token stops being used
	expiryBuffer = 60 * time.Second
	// defaultTokenLifetime applies when the provider omits expires_in
	defaultTokenLifetime = 3600 * time.Second
)

// Authorizer runs the authorization flows against the identity provider
type Authorizer interface {
	// Interactive lets the user pick and approve an account
	Interactive(ctx context.Context) (*oauth2.Token, error)
	// Silent obtains a fresh token for a known account without user input
	Silent(ctx context.Context, loginHint, refreshToken string) (*oauth2.Token, error)
}

// IdentityResolver looks up who a token belongs to
type IdentityResolver interface {
	Resolve(ctx context.Context, token *oauth2.Token) (email, name string, err error)
}

// AccountStore is the part of the database the broker writes to
type AccountStore interface {
	GetAccount(ctx context.Context, email string) (*models.Account, error)
	UpsertAccount(ctx context.Context, account *models.Account) error
}

// Broker hands out valid tokens and links new accounts
type Broker struct {
	store      AccountStore
	authorizer Authorizer
	identity   IdentityResolver
	logger     *slog.Logger
	now        func() time.Time
}

// NewBroker creates a new auth broker
func NewBroker(store AccountStore, authorizer Authorizer, identity IdentityResolver, logger *slog.Logger) *Broker {
	return &Broker{
		store:      store,
		authorizer: authorizer,
		identity:   identity,
		logger:     logger.With("component", "auth"),
		now:        time.Now,
	}
}

// GetValidToken returns the cached token while it has more than a minute
// left. Otherwise it refreshes silently, updates account in place and saves
// it. It never falls back to the interactive flow.
func (b *Broker) GetValidToken(ctx context.Context, account *models.Account) (string, error) {
	if account.ExpiresAt.After(b.now().Add(expiryBuffer)) {
		return account.AccessToken, nil
	}

	token, err := b.authorizer.Silent(ctx, account.Email, account.RefreshToken)
	if err == nil && (token == nil || token.AccessToken == "") {
		err = errors.New("no access token returned")
	}
	if err != nil {
		b.logger.Warn("silent refresh failed", "email", account.Email, "error", err)
		return "", &TokenExpiredError{Email: account.Email, Err: err}
	}

	account.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		account.RefreshToken = token.RefreshToken
	}
	account.ExpiresAt = b.expiry(token)

	if err := b.store.UpsertAccount(ctx, account); err != nil {
		// The fresh token is still usable for this scan
		b.logger.Error("failed to save refreshed token", "email", account.Email, "error", err)
	} else {
		b.logger.Debug("token refreshed", "email", account.Email, "expires_at", account.ExpiresAt)
	}

	return account.AccessToken, nil
}

// AddAccount runs the interactive flow and stores the signed-in account,
// replacing any record with the same email
func (b *Broker) AddAccount(ctx context.Context) (*models.Account, error) {
	token, err := b.authorizer.Interactive(ctx)
	if err != nil {
		if errors.Is(err, ErrAuthCancelled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("%w: %v", ErrAuthCancelled, err)
		}
		return nil, fmt.Errorf("failed to authorize: %w", err)
	}
	if token == nil || token.AccessToken == "" {
		return nil, ErrAuthCancelled
	}

	email, name, err := b.identity.Resolve(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve identity: %w", err)
	}
	if name == "" {
		name = email
	}

	account := &models.Account{
		Email:        email,
		Name:         name,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    b.expiry(token),
	}

	// Google only sends a refresh token on first consent
	if account.RefreshToken == "" {
		existing, err := b.store.GetAccount(ctx, email)
		switch {
		case err == nil:
			account.RefreshToken = existing.RefreshToken
		case !errors.Is(err, database.ErrNotFound):
			return nil, fmt.Errorf("failed to get account: %w", err)
		}
	}

	if err := b.store.UpsertAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to save account: %w", err)
	}

	b.logger.Info("account linked", "email", email)
	return account, nil
}

func (b *Broker) expiry(token *oauth2.Token) time.Time {
	if token.Expiry.IsZero() {
		return b.now().Add(defaultTokenLifetime)
	}
	return token.Expiry
}
