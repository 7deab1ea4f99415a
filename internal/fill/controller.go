// Package fill puts a code into the OTP input of a page and submits it.
package fill

import (
	"errors"
	"log/slog"
	"time"

	"github.com/mixelka/otpfill/internal/dom"
)

var (
	// ErrNoFieldFound is returned when the page has no recognizable OTP input
	ErrNoFieldFound = errors.New("no OTP field found")
	// ErrNoSubmitFound is reported when no submit control was found after
	// filling
	ErrNoSubmitFound = errors.New("no submit control found")
)

// DefaultSubmitDelay leaves reactive frameworks time to process the input
// events before the submit click
const DefaultSubmitDelay = 400 * time.Millisecond

// State of a fill
type State int

const (
	StateIdle State = iota
	StateFieldLocated
	StateValueInjected
	StateSubmitAttempted
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFieldLocated:
		return "field_located"
	case StateValueInjected:
		return "value_injected"
	case StateSubmitAttempted:
		return "submit_attempted"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// SubmitOutcome is the result of the deferred submit step. Err is
// ErrNoSubmitFound when nothing was clicked.
type SubmitOutcome struct {
	Clicked dom.Element
	Err     error
}

// Scheduler runs fn once after d
type Scheduler func(d time.Duration, fn func())

func afterFunc(d time.Duration, fn func()) {
	time.AfterFunc(d, fn)
}

// Controller drives a fill from field lookup to the submit click
type Controller struct {
	delay    time.Duration
	schedule Scheduler
	logger   *slog.Logger
}

// NewController creates a new fill controller
func NewController(delay time.Duration, logger *slog.Logger) *Controller {
	if delay <= 0 {
		delay = DefaultSubmitDelay
	}
	return &Controller{
		delay:    delay,
		schedule: afterFunc,
		logger:   logger.With("component", "fill"),
	}
}

// Fill injects code into the page's OTP field and schedules the submit click.
// It returns once the value is injected. The submit step cannot be
// cancelled; its outcome arrives on the returned channel.
func (c *Controller) Fill(doc dom.Document, code string) (<-chan SubmitOutcome, error) {
	field, ok := LocateField(doc)
	if !ok {
		c.logger.Info("no OTP field found")
		return nil, ErrNoFieldFound
	}
	c.logger.Debug("fill state", "state", StateFieldLocated, "field", field.ID())

	field.Focus()
	field.SetNativeValue(code)
	field.Dispatch(dom.Event{Type: "input", Bubbles: true})
	field.Dispatch(dom.Event{Type: "change", Bubbles: true})
	c.logger.Info("code filled", "state", StateValueInjected)

	outcome := make(chan SubmitOutcome, 1)
	c.schedule(c.delay, func() {
		outcome <- c.submit(doc, field)
	})

	return outcome, nil
}

func (c *Controller) submit(doc dom.Document, field dom.Element) SubmitOutcome {
	btn, ok := LocateSubmit(doc, field)
	c.logger.Debug("fill state", "state", StateSubmitAttempted)
	if !ok {
		c.logger.Debug("no submit control found", "state", StateDone)
		return SubmitOutcome{Err: ErrNoSubmitFound}
	}

	btn.Click()
	c.logger.Info("submitted", "state", StateDone)
	return SubmitOutcome{Clicked: btn}
}
