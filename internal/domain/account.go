package domain

import (
	"encoding/json"
	"errors"
)

var (
	// ErrAccountExists is returned when registering a username that is already
	// taken within the same project.
	ErrAccountExists = errors.New("account already exists")
	// ErrAccountNotFound is returned when no account matches the presented
	// credentials or session.
	ErrAccountNotFound = errors.New("account not found")
	// ErrAccountBanned is returned when a banned account attempts to log in.
	ErrAccountBanned = errors.New("account banned")
)

// DefaultProject is the project namespace used when a request omits one.
const DefaultProject = "default"

// Account represents a registered user of a client application.
// A username is unique within its project, so the same name may be
// registered independently by different projects sharing the backend.
type Account struct {
	ID               string          // Opaque store-assigned identifier
	Username         string          // Login username
	Project          string          // Namespace partitioning usernames
	CredentialDigest string          // One-way digest of the login secret
	Session          string          // Last issued session token, empty before first login
	Banned           bool            // Blocks login once set, data stays intact
	Data             json.RawMessage // Opaque application payload, written via save
	CreatedAt        int64           // Unix timestamp of account creation
}
