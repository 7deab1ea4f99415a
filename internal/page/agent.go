// Package page holds the page-side half of filling: the agent answering
// FILL_OTP requests and the tab it runs in.
package page

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/mixelka/otpfill/internal/dom"
	"github.com/mixelka/otpfill/internal/fill"
	"github.com/mixelka/otpfill/internal/messaging"
)

// Answer of the agent when the page has no OTP field
const errMsgNoField = "No OTP field found"

// Agent fills codes into a loaded document
type Agent struct {
	controller *fill.Controller
	logger     *slog.Logger
}

// NewAgent creates a new page agent
func NewAgent(controller *fill.Controller, logger *slog.Logger) *Agent {
	return &Agent{
		controller: controller,
		logger:     logger.With("component", "agent"),
	}
}

// Handle answers a page-directed request. For a successful fill the returned
// channel delivers the outcome of the submit step, otherwise it is nil.
func (a *Agent) Handle(doc dom.Document, req messaging.Request) (messaging.Response, <-chan fill.SubmitOutcome) {
	if req.Type != messaging.FillOTP {
		return messaging.Failure(messaging.ErrMsgUnknownType), nil
	}
	if req.Code == "" {
		return messaging.Failure(messaging.ErrMsgCodeRequired), nil
	}

	outcome, err := a.controller.Fill(doc, req.Code)
	if errors.Is(err, fill.ErrNoFieldFound) {
		a.logger.Info("No OTP field found on this page.")
		return messaging.Failure(errMsgNoField), nil
	}
	if err != nil {
		return messaging.Failure(err.Error()), nil
	}

	notice := fmt.Sprintf("Filled %s", req.Code)
	a.logger.Info(notice)

	submitted := make(chan fill.SubmitOutcome, 1)
	go func() {
		result := <-outcome
		if result.Err == nil {
			a.logger.Info("Submitted!")
		}
		submitted <- result
	}()

	return messaging.Response{OK: true, Message: notice}, submitted
}
