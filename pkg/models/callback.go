package models

// CallbackAction type of callback action
type CallbackAction string

const (
	CallbackFillCode CallbackAction = "fc"
	CallbackRescan   CallbackAction = "rs"
)

// CallbackData structure for inline button callback
type CallbackData struct {
	Action CallbackAction `json:"a"`
	Code   string         `json:"c,omitempty"`
	Email  string         `json:"e,omitempty"` // Account filter for rescans
}
