package auth

import (
	"errors"
	"fmt"
)

// ErrAuthCancelled is returned when the interactive flow is dismissed, times
// out or yields no usable token
var ErrAuthCancelled = errors.New("authorization cancelled")

// TokenExpiredError means the account's token could not be refreshed
// silently and the account has to be linked again
type TokenExpiredError struct {
	Email string
	Err   error
}

func (e *TokenExpiredError) Error() string {
	return fmt.Sprintf("token expired for %s, re-add the account", e.Email)
}

func (e *TokenExpiredError) Unwrap() error {
	return e.Err
}
