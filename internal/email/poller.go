package email

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mixelka/otpfill/pkg/models"
)

// CodesHandler receives the result of a background scan
type CodesHandler func(ctx context.Context, candidates []models.Candidate)

// Poller runs ScanAll on a fixed interval
type Poller struct {
	manager  *Manager
	interval time.Duration
	onCodes  CodesHandler
	logger   *slog.Logger
}

// NewPoller creates a poller. The first scan happens one interval after Run.
func NewPoller(manager *Manager, interval time.Duration, onCodes CodesHandler, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = time.Minute
	}

	return &Poller{
		manager:  manager,
		interval: interval,
		onCodes:  onCodes,
		logger:   logger.With("component", "poller"),
	}
}

// Run blocks until ctx is cancelled
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Info("polling started", "interval", p.interval)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("polling stopped")
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	candidates, err := p.manager.ScanAll(ctx, "")
	if errors.Is(err, ErrNoAccounts) {
		p.logger.Debug("no accounts to poll")
		return
	}
	if err != nil {
		p.logger.Error("background scan failed", "error", err)
		return
	}

	p.logger.Debug("background scan finished", "codes", len(candidates))

	if p.onCodes != nil {
		p.onCodes(ctx, candidates)
	}
}
