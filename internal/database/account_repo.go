package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mixelka/otpfill/pkg/models"
)

// ErrNotFound is returned when a record is not found
var ErrNotFound = errors.New("record not found")

// ListAccounts returns all linked accounts in the order they were first linked
func (db *DB) ListAccounts(ctx context.Context) ([]*models.Account, error) {
	var accounts []*models.Account
	query := `SELECT * FROM accounts ORDER BY created_at, email`
	if err := db.SelectContext(ctx, &accounts, query); err != nil {
		return nil, fmt.Errorf("failed to get accounts: %w", err)
	}

	for _, account := range accounts {
		db.openTokens(account)
	}
	return accounts, nil
}

// GetAccount returns an account by email
func (db *DB) GetAccount(ctx context.Context, email string) (*models.Account, error) {
	var account models.Account
	query := `SELECT * FROM accounts WHERE email = ?`
	err := db.GetContext(ctx, &account, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	db.openTokens(&account)
	return &account, nil
}

// UpsertAccount stores an account, replacing any existing record with the same email
func (db *DB) UpsertAccount(ctx context.Context, account *models.Account) error {
	accessToken, err := db.box.Seal(account.AccessToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt access token: %w", err)
	}
	refreshToken, err := db.box.Seal(account.RefreshToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt refresh token: %w", err)
	}

	query := `
		INSERT INTO accounts (email, name, access_token, refresh_token, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET
			name = excluded.name,
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
	`
	now := time.Now()
	_, err = db.ExecContext(ctx, query,
		account.Email,
		account.Name,
		accessToken,
		refreshToken,
		account.ExpiresAt,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert account: %w", err)
	}

	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now
	return nil
}

// DeleteAccount deletes an account; deleting an unknown email is not an error
func (db *DB) DeleteAccount(ctx context.Context, email string) error {
	query := `DELETE FROM accounts WHERE email = ?`
	_, err := db.ExecContext(ctx, query, email)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return nil
}

// openTokens decrypts the token columns in place. A row that no longer
// decrypts, e.g. after an ENCRYPTION_KEY change, loses its tokens and reads
// as expired so that only this account needs to be linked again.
func (db *DB) openTokens(account *models.Account) {
	accessToken, err := db.box.Open(account.AccessToken)
	if err != nil {
		resetTokens(account)
		return
	}
	refreshToken, err := db.box.Open(account.RefreshToken)
	if err != nil {
		resetTokens(account)
		return
	}

	account.AccessToken = accessToken
	account.RefreshToken = refreshToken
}

func resetTokens(account *models.Account) {
	account.AccessToken = ""
	account.RefreshToken = ""
	account.ExpiresAt = time.Time{}
}
