package messaging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/nalgeon/be"

	"github.com/mixelka/otpfill/internal/auth"
	"github.com/mixelka/otpfill/internal/email"
	"github.com/mixelka/otpfill/pkg/models"
)

type fakeStore struct {
	accounts []*models.Account
	deleted  []string
}

func (s *fakeStore) ListAccounts(ctx context.Context) ([]*models.Account, error) {
	return s.accounts, nil
}

func (s *fakeStore) DeleteAccount(ctx context.Context, email string) error {
	s.deleted = append(s.deleted, email)
	return nil
}

type fakeLinker struct {
	account *models.Account
	err     error
}

func (l fakeLinker) AddAccount(ctx context.Context) (*models.Account, error) {
	return l.account, l.err
}

type fakeScanner struct {
	codes  []models.Candidate
	err    error
	filter string
}

func (s *fakeScanner) ScanAll(ctx context.Context, filterEmail string) ([]models.Candidate, error) {
	s.filter = filterEmail
	return s.codes, s.err
}

type fakeTab struct {
	attached  bool
	injectErr error
	answer    *Response
	sent      []Request
	injected  int
}

func (t *fakeTab) Send(ctx context.Context, req Request) (*Response, error) {
	t.sent = append(t.sent, req)
	if !t.attached {
		return nil, ErrAgentNotAttached
	}
	return t.answer, nil
}

func (t *fakeTab) Inject(ctx context.Context) error {
	t.injected++
	if t.injectErr != nil {
		return t.injectErr
	}
	t.attached = true
	return nil
}

type fakeTabs struct {
	tab *fakeTab
}

func (f fakeTabs) ActiveTab(ctx context.Context) (Tab, bool) {
	if f.tab == nil {
		return nil, false
	}
	return f.tab, true
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDispatcher(deps DispatcherDeps) *Dispatcher {
	if deps.Accounts == nil {
		deps.Accounts = &fakeStore{}
	}
	if deps.Scanner == nil {
		deps.Scanner = &fakeScanner{}
	}
	if deps.Tabs == nil {
		deps.Tabs = fakeTabs{}
	}
	deps.Logger = discardLogger()
	return NewDispatcher(deps)
}

func TestGetAccountsExposesOnlyIdentity(t *testing.T) {
	store := &fakeStore{accounts: []*models.Account{
		{Email: "a@gmail.com", Name: "A", AccessToken: "secret"},
	}}
	d := newTestDispatcher(DispatcherDeps{Accounts: store})

	resp := d.Dispatch(context.Background(), Request{Type: GetAccounts})
	be.True(t, resp.OK)
	be.Equal(t, resp.Accounts, []models.AccountInfo{{Email: "a@gmail.com", Name: "A"}})
}

func TestAddAccount(t *testing.T) {
	d := newTestDispatcher(DispatcherDeps{Linker: fakeLinker{account: &models.Account{Email: "a@gmail.com", Name: "A"}}})
	resp := d.Dispatch(context.Background(), Request{Type: AddAccount})
	be.True(t, resp.OK)
	be.Equal(t, *resp.Account, models.AccountInfo{Email: "a@gmail.com", Name: "A"})

	d = newTestDispatcher(DispatcherDeps{Linker: fakeLinker{err: auth.ErrAuthCancelled}})
	resp = d.Dispatch(context.Background(), Request{Type: AddAccount})
	be.True(t, !resp.OK)
	be.Equal(t, resp.Error, auth.ErrAuthCancelled.Error())
}

func TestRemoveAccount(t *testing.T) {
	store := &fakeStore{}
	d := newTestDispatcher(DispatcherDeps{Accounts: store})

	resp := d.Dispatch(context.Background(), Request{Type: RemoveAccount, Email: "a@gmail.com"})
	be.True(t, resp.OK)
	be.Equal(t, store.deleted, []string{"a@gmail.com"})

	resp = d.Dispatch(context.Background(), Request{Type: RemoveAccount})
	be.Equal(t, resp.Error, ErrMsgEmailRequired)
}

func TestGetOTP(t *testing.T) {
	scanner := &fakeScanner{codes: []models.Candidate{{Code: "482913"}}}
	d := newTestDispatcher(DispatcherDeps{Scanner: scanner})

	resp := d.Dispatch(context.Background(), Request{Type: GetOTP, FilterEmail: "a@gmail.com"})
	be.True(t, resp.OK)
	be.Equal(t, resp.Codes[0].Code, "482913")
	be.Equal(t, scanner.filter, "a@gmail.com")
}

func TestGetOTPNoAccounts(t *testing.T) {
	d := newTestDispatcher(DispatcherDeps{Scanner: &fakeScanner{err: email.ErrNoAccounts}})

	resp := d.Dispatch(context.Background(), Request{Type: GetOTP})
	be.True(t, !resp.OK)
	be.Equal(t, resp.Error, "no_accounts")
}

func TestUnknownType(t *testing.T) {
	d := newTestDispatcher(DispatcherDeps{})
	resp := d.Dispatch(context.Background(), Request{Type: "PING"})
	be.Equal(t, resp.Error, ErrMsgUnknownType)
}

func TestFillCode(t *testing.T) {
	t.Run("attached agent answers", func(t *testing.T) {
		tab := &fakeTab{attached: true, answer: &Response{OK: true, Message: "Filled 482913"}}
		d := newTestDispatcher(DispatcherDeps{Tabs: fakeTabs{tab: tab}})

		resp := d.Dispatch(context.Background(), Request{Type: FillCode, Code: "482913"})
		be.True(t, resp.OK)
		be.Equal(t, tab.sent, []Request{{Type: FillOTP, Code: "482913"}})
		be.Equal(t, tab.injected, 0)
	})

	t.Run("agent injected and request resent", func(t *testing.T) {
		tab := &fakeTab{answer: &Response{OK: true}}
		d := newTestDispatcher(DispatcherDeps{Tabs: fakeTabs{tab: tab}})

		resp := d.Dispatch(context.Background(), Request{Type: FillCode, Code: "482913"})
		be.True(t, resp.OK)
		be.Equal(t, len(tab.sent), 2)
		be.Equal(t, tab.injected, 1)
	})

	t.Run("second answer empty", func(t *testing.T) {
		tab := &fakeTab{}
		d := newTestDispatcher(DispatcherDeps{Tabs: fakeTabs{tab: tab}})

		resp := d.Dispatch(context.Background(), Request{Type: FillCode, Code: "482913"})
		be.Equal(t, resp.Error, ErrMsgNoField)
	})

	t.Run("injection fails", func(t *testing.T) {
		tab := &fakeTab{injectErr: errors.New("restricted page")}
		d := newTestDispatcher(DispatcherDeps{Tabs: fakeTabs{tab: tab}})

		resp := d.Dispatch(context.Background(), Request{Type: FillCode, Code: "482913"})
		be.Equal(t, resp.Error, ErrMsgNoAccess)
		be.Equal(t, len(tab.sent), 1)
	})

	t.Run("no active tab", func(t *testing.T) {
		d := newTestDispatcher(DispatcherDeps{})
		resp := d.Dispatch(context.Background(), Request{Type: FillCode, Code: "482913"})
		be.Equal(t, resp.Error, ErrMsgNoActiveTab)
	})

	t.Run("agent failure passed through", func(t *testing.T) {
		tab := &fakeTab{attached: true, answer: &Response{OK: false, Error: "No OTP field found"}}
		d := newTestDispatcher(DispatcherDeps{Tabs: fakeTabs{tab: tab}})

		resp := d.Dispatch(context.Background(), Request{Type: FillCode, Code: "482913"})
		be.Equal(t, resp.Error, "No OTP field found")
	})
}
