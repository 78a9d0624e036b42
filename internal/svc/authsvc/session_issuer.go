package authsvc

import (
	"fmt"

	"github.com/google/uuid"
)

// SessionIssuer generates session tokens. Tokens must be unguessable and
// collision-free across the lifetime of a deployment; no two live sessions
// ever share a token.
type SessionIssuer interface {
	Issue() (string, error)
}

// UUIDSessionIssuer implements SessionIssuer with UUIDv7 tokens:
// time-ordered, with 74 bits of randomness per token.
type UUIDSessionIssuer struct{}

var _ SessionIssuer = UUIDSessionIssuer{}

// Issue implements SessionIssuer.Issue.
func (UUIDSessionIssuer) Issue() (string, error) {
	token, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("new uuid: %w", err)
	}

	return token.String(), nil
}
