package email

import (
	"context"
	"errors"
	"testing"

	"github.com/nalgeon/be"

	"github.com/mixelka/otpfill/pkg/models"
)

type fakeAccounts []*models.Account

func (f fakeAccounts) ListAccounts(ctx context.Context) ([]*models.Account, error) {
	return f, nil
}

type fakeTokens struct {
	failing map[string]error
}

func (f *fakeTokens) GetValidToken(ctx context.Context, account *models.Account) (string, error) {
	if err := f.failing[account.Email]; err != nil {
		return "", err
	}
	return "token-" + account.Email, nil
}

type fakeScanner struct {
	results map[string][]models.Candidate
	scanned []string
}

func (f *fakeScanner) Scan(ctx context.Context, token, accountEmail string) ([]models.Candidate, error) {
	if token != "token-"+accountEmail {
		return nil, errors.New("wrong token")
	}
	f.scanned = append(f.scanned, accountEmail)
	return f.results[accountEmail], nil
}

func twoAccounts() fakeAccounts {
	return fakeAccounts{
		{Email: "a@gmail.com", Name: "A"},
		{Email: "b@gmail.com", Name: "B"},
	}
}

func TestScanAllOrdersNewestFirst(t *testing.T) {
	scanner := &fakeScanner{results: map[string][]models.Candidate{
		"a@gmail.com": {{Code: "111111", AccountEmail: "a@gmail.com", TimestampMs: 100}},
		"b@gmail.com": {{Code: "222222", AccountEmail: "b@gmail.com", TimestampMs: 200}},
	}}
	m := NewManager(twoAccounts(), &fakeTokens{}, scanner, testLogger())

	got, err := m.ScanAll(context.Background(), "")
	be.Err(t, err, nil)
	be.Equal(t, len(got), 2)
	be.Equal(t, got[0].Code, "222222")
	be.Equal(t, got[1].Code, "111111")
	be.Equal(t, scanner.scanned, []string{"a@gmail.com", "b@gmail.com"})
}

func TestScanAllKeepsAccountOrderOnTies(t *testing.T) {
	scanner := &fakeScanner{results: map[string][]models.Candidate{
		"a@gmail.com": {{Code: "111111", TimestampMs: 100}},
		"b@gmail.com": {{Code: "222222", TimestampMs: 100}},
	}}
	m := NewManager(twoAccounts(), &fakeTokens{}, scanner, testLogger())

	got, err := m.ScanAll(context.Background(), "")
	be.Err(t, err, nil)
	be.Equal(t, got[0].Code, "111111")
	be.Equal(t, got[1].Code, "222222")
}

func TestScanAllIsolatesFailures(t *testing.T) {
	scanner := &fakeScanner{results: map[string][]models.Candidate{
		"b@gmail.com": {{Code: "222222", TimestampMs: 200}},
	}}
	tokens := &fakeTokens{failing: map[string]error{
		"a@gmail.com": errors.New("token expired"),
	}}
	m := NewManager(twoAccounts(), tokens, scanner, testLogger())

	got, err := m.ScanAll(context.Background(), "")
	be.Err(t, err, nil)
	be.Equal(t, len(got), 1)
	be.Equal(t, got[0].Code, "222222")
	be.Equal(t, scanner.scanned, []string{"b@gmail.com"})
}

func TestScanAllFilter(t *testing.T) {
	scanner := &fakeScanner{results: map[string][]models.Candidate{
		"a@gmail.com": {{Code: "111111", TimestampMs: 100}},
		"b@gmail.com": {{Code: "222222", TimestampMs: 200}},
	}}
	m := NewManager(twoAccounts(), &fakeTokens{}, scanner, testLogger())

	got, err := m.ScanAll(context.Background(), "a@gmail.com")
	be.Err(t, err, nil)
	be.Equal(t, len(got), 1)
	be.Equal(t, got[0].Code, "111111")

	got, err = m.ScanAll(context.Background(), "nobody@gmail.com")
	be.Err(t, err, nil)
	be.Equal(t, len(got), 0)
}

func TestScanAllNoAccounts(t *testing.T) {
	m := NewManager(fakeAccounts{}, &fakeTokens{}, &fakeScanner{}, testLogger())

	_, err := m.ScanAll(context.Background(), "")
	be.Err(t, err, ErrNoAccounts)
}
