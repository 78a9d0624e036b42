package account

import (
	"context"
	"encoding/json"

	"github.com/mfeller/gameauth/internal/domain"
)

// Repository defines the interface for account persistence. It is the only
// synchronization boundary in the system: conflicting writes to the same
// account are serialized here, requests for different accounts do not wait
// on each other beyond the duration of a single statement.
type Repository interface {
	// CreateAccount adds a new account with a store-assigned ID.
	// Returns domain.ErrAccountExists if the (username, project) pair is taken,
	// regardless of the credential digest.
	CreateAccount(ctx context.Context, username, project, credentialDigest string) (*domain.Account, error)

	// GetByCredentials retrieves the account matching username and digest.
	// An empty project matches accounts in any project; otherwise the project
	// must match exactly. Returns domain.ErrAccountNotFound on a miss.
	GetByCredentials(ctx context.Context, username, project, credentialDigest string) (*domain.Account, error)

	// GetByIDAndSession retrieves the account matching the exact (id, session)
	// pair. Returns domain.ErrAccountNotFound on a miss.
	GetByIDAndSession(ctx context.Context, id, session string) (*domain.Account, error)

	// UpdateSession replaces the account's session token.
	// Returns domain.ErrAccountNotFound if the account does not exist.
	UpdateSession(ctx context.Context, id, session string) error

	// UpdateData replaces the account's opaque data payload.
	// Returns domain.ErrAccountNotFound if the account does not exist.
	UpdateData(ctx context.Context, id string, data json.RawMessage) error

	// SetBanned flips the account's ban flag. A banned account keeps its data
	// but can no longer log in.
	SetBanned(ctx context.Context, id string, banned bool) error

	// Close releases any resources held by the repository.
	Close() error
}

// RepositoryFactory is a function that creates a new Repository instance.
// Returns an error if initialization fails.
type RepositoryFactory func() (Repository, error)
