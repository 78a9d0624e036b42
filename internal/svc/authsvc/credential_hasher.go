package authsvc

import (
	"encoding/base64"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters. Memory-hard enough to make offline guessing expensive
// while keeping login latency acceptable.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024 // KiB
	argonThreads = 4
	argonKeyLen  = 32
)

// CredentialHasher turns a plaintext secret into a storable digest. The
// digest must be deterministic: accounts are looked up by
// (username, project, digest), so the same secret has to produce the same
// digest on every call.
type CredentialHasher interface {
	Hash(secret string) string
}

// Argon2Hasher implements CredentialHasher using Argon2id with a
// deployment-wide salt. The salt is static rather than per-account to keep
// the digest deterministic; the memory-hard KDF still makes bulk dictionary
// attacks on a leaked store expensive.
type Argon2Hasher struct {
	salt []byte
}

var _ CredentialHasher = (*Argon2Hasher)(nil)

// NewArgon2Hasher creates an Argon2Hasher with the given salt. Changing the
// salt invalidates every stored digest, so it must stay stable for the
// lifetime of a deployment.
func NewArgon2Hasher(salt string) *Argon2Hasher {
	return &Argon2Hasher{salt: []byte(salt)}
}

// Hash implements CredentialHasher.Hash. The digest is base64url-encoded.
func (h *Argon2Hasher) Hash(secret string) string {
	digest := argon2.IDKey([]byte(secret), h.salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	return base64.RawURLEncoding.EncodeToString(digest)
}
