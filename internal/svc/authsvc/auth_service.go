package authsvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mfeller/gameauth/internal/domain"
	"github.com/mfeller/gameauth/internal/infra/logging"
	"github.com/mfeller/gameauth/internal/repo/account"
)

// AuthConfig contains configuration parameters for the authentication service.
type AuthConfig struct {
	// DigestSalt is the deployment-wide salt fed into the credential hasher.
	// Must not change once accounts have been registered.
	DigestSalt string `env:"DIGEST_SALT" envDefault:"gameauth-digest-v1"`
}

// AuthService orchestrates registration, login and data persistence for
// client application accounts. It holds no per-request state; the account
// repository is the only stateful collaborator.
type AuthService struct {
	Config   AuthConfig
	Accounts account.Repository
	Hasher   CredentialHasher
	Sessions SessionIssuer
	Log      logging.Logger
}

// NewAuthService creates a new AuthService with the given account repository
// factory and configuration. Returns an error if the repository cannot be created.
func NewAuthService(repoFactory account.RepositoryFactory, cfg AuthConfig) (*AuthService, error) {
	log := logging.GetLogger("svc.authsvc.auth_service")

	accounts, err := repoFactory()
	if err != nil {
		return nil, fmt.Errorf("new account repo: %w", err)
	}

	return &AuthService{
		Config:   cfg,
		Accounts: accounts,
		Hasher:   NewArgon2Hasher(cfg.DigestSalt),
		Sessions: UUIDSessionIssuer{},
		Log:      log,
	}, nil
}

// Register creates a new account for (username, project). The plaintext
// secret is hashed before it reaches the repository; validation failures
// never touch the store.
func (s *AuthService) Register(ctx context.Context, username, password, passwordRepeat, project string) (err error) {
	if project == "" {
		project = domain.DefaultProject
	}

	log := s.Log.With(logging.Group("account", "username", username, "project", project))

	defer func() {
		if err != nil {
			log.WarnContext(ctx, "register failed", "error", err)
		} else {
			log.InfoContext(ctx, "account registered")
		}
	}()

	if password != passwordRepeat {
		return domain.ErrPasswordMismatch
	}

	if username == "" || password == "" {
		return domain.ErrMissingFields
	}

	if _, err := s.Accounts.CreateAccount(ctx, username, project, s.Hasher.Hash(password)); err != nil {
		return fmt.Errorf("create account: %w", err)
	}

	return nil
}

// Login authenticates an account and issues a fresh session token,
// replacing whatever token a previous login left behind. An empty project
// matches accounts in any project.
//
// Unknown usernames and wrong passwords are indistinguishable: both surface
// as domain.ErrAccountNotFound so responses cannot be used to enumerate
// registered names. A banned account fails with domain.ErrAccountBanned even
// when the credentials are correct.
func (s *AuthService) Login(ctx context.Context, username, password, project string) (_ *domain.SessionContext, err error) {
	log := s.Log.With(logging.Group("account", "username", username, "project", project))

	defer func() {
		if err != nil {
			log.WarnContext(ctx, "login failed", "error", err)
		} else {
			log.InfoContext(ctx, "login successful")
		}
	}()

	acc, err := s.Accounts.GetByCredentials(ctx, username, project, s.Hasher.Hash(password))
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, fmt.Errorf("get account: %w", err)
	}

	if acc.Banned {
		return nil, domain.ErrAccountBanned
	}

	token, err := s.Sessions.Issue()
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}

	if err := s.Accounts.UpdateSession(ctx, acc.ID, token); err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}

	log = log.With(logging.Group("account", "id", acc.ID))

	return &domain.SessionContext{
		AccountID: acc.ID,
		Token:     token,
		Data:      acc.Data,
	}, nil
}

// Save overwrites the account's opaque data payload. The caller proves its
// identity with the exact (id, session) pair issued by the last login; a
// stale or forged session fails the same way as an unknown account. The
// payload must be valid JSON but is otherwise not interpreted.
func (s *AuthService) Save(ctx context.Context, id, session string, data json.RawMessage) (err error) {
	log := s.Log.With(logging.Group("account", "id", id))

	defer func() {
		if err != nil {
			log.WarnContext(ctx, "save failed", "error", err)
		} else {
			log.InfoContext(ctx, "data saved", "bytes", len(data))
		}
	}()

	if id == "" || session == "" {
		return domain.ErrMissingFields
	}

	acc, err := s.Accounts.GetByIDAndSession(ctx, id, session)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return domain.ErrAccountNotFound
		}

		return fmt.Errorf("get account: %w", err)
	}

	if !json.Valid(data) {
		return domain.ErrMalformedPayload
	}

	if err := s.Accounts.UpdateData(ctx, acc.ID, data); err != nil {
		return fmt.Errorf("update data: %w", err)
	}

	return nil
}

// Close releases resources held by the service, such as database connections.
// Returns an error if cleanup fails.
func (s *AuthService) Close() error {
	if err := s.Accounts.Close(); err != nil {
		return fmt.Errorf("close account repo: %w", err)
	}

	return nil
}
