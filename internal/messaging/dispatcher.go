package messaging

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mixelka/otpfill/internal/email"
	"github.com/mixelka/otpfill/pkg/models"
)

// ErrAgentNotAttached is returned by a Tab that has no page agent yet
var ErrAgentNotAttached = errors.New("page agent not attached")

// Tab is a page that can receive page-directed requests
type Tab interface {
	Send(ctx context.Context, req Request) (*Response, error)
	// Inject attaches the page agent
	Inject(ctx context.Context) error
}

// TabProvider finds the tab the user is looking at
type TabProvider interface {
	ActiveTab(ctx context.Context) (Tab, bool)
}

// AccountStore lists and removes linked accounts
type AccountStore interface {
	ListAccounts(ctx context.Context) ([]*models.Account, error)
	DeleteAccount(ctx context.Context, email string) error
}

// AccountLinker links a new account interactively
type AccountLinker interface {
	AddAccount(ctx context.Context) (*models.Account, error)
}

// CodeScanner scans linked accounts for codes
type CodeScanner interface {
	ScanAll(ctx context.Context, filterEmail string) ([]models.Candidate, error)
}

// DispatcherDeps dependencies of a Dispatcher
type DispatcherDeps struct {
	Accounts AccountStore
	Linker   AccountLinker
	Scanner  CodeScanner
	Tabs     TabProvider
	Logger   *slog.Logger
}

type handlerFunc func(ctx context.Context, req Request) Response

// Dispatcher routes requests to their handlers
type Dispatcher struct {
	deps     DispatcherDeps
	handlers map[MessageType]handlerFunc
	logger   *slog.Logger
}

// NewDispatcher creates a new dispatcher
func NewDispatcher(deps DispatcherDeps) *Dispatcher {
	d := &Dispatcher{
		deps:   deps,
		logger: deps.Logger.With("component", "dispatcher"),
	}

	d.handlers = map[MessageType]handlerFunc{
		GetAccounts:   d.handleGetAccounts,
		AddAccount:    d.handleAddAccount,
		RemoveAccount: d.handleRemoveAccount,
		GetOTP:        d.handleGetOTP,
		FillCode:      d.handleFillCode,
		FillOTP:       d.handleFillOTP,
	}

	return d
}

// Dispatch answers one request
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) Response {
	handler, ok := d.handlers[req.Type]
	if !ok {
		return Failure(ErrMsgUnknownType)
	}
	return handler(ctx, req)
}

func (d *Dispatcher) handleGetAccounts(ctx context.Context, req Request) Response {
	accounts, err := d.deps.Accounts.ListAccounts(ctx)
	if err != nil {
		d.logger.Error("failed to list accounts", "error", err)
		return Failure(err.Error())
	}

	infos := make([]models.AccountInfo, 0, len(accounts))
	for _, account := range accounts {
		infos = append(infos, account.Info())
	}
	return Response{OK: true, Accounts: infos}
}

func (d *Dispatcher) handleAddAccount(ctx context.Context, req Request) Response {
	account, err := d.deps.Linker.AddAccount(ctx)
	if err != nil {
		d.logger.Warn("failed to add account", "error", err)
		return Failure(err.Error())
	}

	info := account.Info()
	return Response{OK: true, Account: &info}
}

func (d *Dispatcher) handleRemoveAccount(ctx context.Context, req Request) Response {
	if req.Email == "" {
		return Failure(ErrMsgEmailRequired)
	}

	if err := d.deps.Accounts.DeleteAccount(ctx, req.Email); err != nil {
		d.logger.Error("failed to remove account", "email", req.Email, "error", err)
		return Failure(err.Error())
	}

	d.logger.Info("account removed", "email", req.Email)
	return Response{OK: true}
}

func (d *Dispatcher) handleGetOTP(ctx context.Context, req Request) Response {
	codes, err := d.deps.Scanner.ScanAll(ctx, req.FilterEmail)
	if errors.Is(err, email.ErrNoAccounts) {
		return Failure(email.ErrNoAccounts.Error())
	}
	if err != nil {
		d.logger.Error("scan failed", "error", err)
		return Failure(err.Error())
	}

	if codes == nil {
		codes = []models.Candidate{}
	}
	return Response{OK: true, Codes: codes}
}

// handleFillCode sends FILL_OTP to the active tab. A tab without an agent
// gets one injected and the request is sent once more.
func (d *Dispatcher) handleFillCode(ctx context.Context, req Request) Response {
	if req.Code == "" {
		return Failure(ErrMsgCodeRequired)
	}

	tab, ok := d.deps.Tabs.ActiveTab(ctx)
	if !ok {
		return Failure(ErrMsgNoActiveTab)
	}

	fill := Request{Type: FillOTP, Code: req.Code}
	resp, err := tab.Send(ctx, fill)
	if err == nil && resp != nil {
		return *resp
	}

	if err := tab.Inject(ctx); err != nil {
		d.logger.Warn("failed to inject page agent", "error", err)
		return Failure(ErrMsgNoAccess)
	}

	resp, err = tab.Send(ctx, fill)
	if err != nil || resp == nil {
		return Failure(ErrMsgNoField)
	}
	return *resp
}

// handleFillOTP passes a page-directed request straight to the active tab
func (d *Dispatcher) handleFillOTP(ctx context.Context, req Request) Response {
	tab, ok := d.deps.Tabs.ActiveTab(ctx)
	if !ok {
		return Failure(ErrMsgNoActiveTab)
	}

	resp, err := tab.Send(ctx, req)
	if err != nil {
		return Failure(err.Error())
	}
	if resp == nil {
		return Failure(ErrMsgNoField)
	}
	return *resp
}
