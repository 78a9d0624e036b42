package domain

import (
	"encoding/json"
	"errors"
)

var (
	// ErrMissingFields is returned when a request omits a required field.
	ErrMissingFields = errors.New("missing fields")
	// ErrPasswordMismatch is returned when a registration's repeated password
	// does not match.
	ErrPasswordMismatch = errors.New("password mismatch")
	// ErrMalformedPayload is returned when a save payload is not valid JSON.
	ErrMalformedPayload = errors.New("malformed payload")
)

// SessionContext is the result of a successful login. It carries everything a
// client needs for subsequent authenticated calls; no session state is held
// anywhere else.
type SessionContext struct {
	AccountID string          // Store-assigned account identifier
	Token     string          // Session token, replaced by every login
	Data      json.RawMessage // Application payload saved for the account
}
