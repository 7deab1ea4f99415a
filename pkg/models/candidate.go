package models

// Candidate is a verification code found in a recent message together with
// where it came from
type Candidate struct {
	Code         string `json:"code"`
	SenderName   string `json:"senderName"`
	SenderEmail  string `json:"senderEmail"`
	AccountEmail string `json:"accountEmail"`
	TimestampMs  int64  `json:"timestamp"` // Provider delivery time, unix ms
}
