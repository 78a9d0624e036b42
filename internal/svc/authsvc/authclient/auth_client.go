package authclient

import (
	"context"
	"encoding/json"

	"github.com/mfeller/gameauth/internal/domain"
)

// AuthClient is the Go-side binding for the authentication backend, used by
// game servers and tools that act on behalf of a client application. The
// returned payloads mirror the wire contract: a failed operation is a
// successful call with Success=false, while a returned error means the
// request itself could not be completed.
type AuthClient interface {
	// Register creates an account for (username, project).
	Register(ctx context.Context, username, password, passwordRepeat, project string) (*domain.RegisterResponse, error)

	// Login authenticates and returns the account ID, session token and
	// saved data payload.
	Login(ctx context.Context, username, password, project string) (*domain.LoginResponse, error)

	// Save persists the opaque data payload for the account identified by
	// the exact (id, session) pair.
	Save(ctx context.Context, id, session string, data json.RawMessage) (*domain.SaveResponse, error)
}
