// Package messaging is the request/response surface between the CLI, the
// daemon and the page agent.
package messaging

import (
	"github.com/mixelka/otpfill/pkg/models"
)

// MessageType tags a request
type MessageType string

const (
	GetAccounts   MessageType = "GET_ACCOUNTS"
	AddAccount    MessageType = "ADD_ACCOUNT"
	RemoveAccount MessageType = "REMOVE_ACCOUNT"
	GetOTP        MessageType = "GET_OTP"
	FillCode      MessageType = "FILL_CODE"
	// FillOTP is page-directed: it goes to the active tab's agent
	FillOTP MessageType = "FILL_OTP"
)

// User-visible errors of the fill route
const (
	ErrMsgNoActiveTab   = "No active tab"
	ErrMsgNoAccess      = "Can't access this page. Try refreshing it first."
	ErrMsgNoField       = "No OTP field found on this page."
	ErrMsgNoResponse    = "No response from background. Reload and try again."
	ErrMsgUnknownType   = "unknown message type"
	ErrMsgEmailRequired = "email is required"
	ErrMsgCodeRequired  = "code is required"
)

// Request is one message to the daemon
type Request struct {
	Type        MessageType `json:"type"`
	Email       string      `json:"email,omitempty"`
	FilterEmail string      `json:"filterEmail,omitempty"`
	Code        string      `json:"code,omitempty"`
}

// Response answers a Request. Message carries a notice for the user.
type Response struct {
	OK       bool                 `json:"ok"`
	Error    string               `json:"error,omitempty"`
	Message  string               `json:"message,omitempty"`
	Accounts []models.AccountInfo `json:"accounts,omitempty"`
	Account  *models.AccountInfo  `json:"account,omitempty"`
	Codes    []models.Candidate   `json:"codes"`
}

// Failure builds an error response
func Failure(msg string) Response {
	return Response{OK: false, Error: msg}
}
