package authsvc_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfeller/gameauth/internal/domain"
	"github.com/mfeller/gameauth/internal/infra/logging"
	"github.com/mfeller/gameauth/internal/svc/authsvc"
)

// mockAccountRepository implements account.Repository for testing.
type mockAccountRepository struct {
	m        sync.Mutex
	accounts map[string]*domain.Account // keyed by ID
	nextID   int
	writes   int
	err      error
}

func newMockAccountRepo() *mockAccountRepository {
	return &mockAccountRepository{
		accounts: make(map[string]*domain.Account),
	}
}

func (m *mockAccountRepository) CreateAccount(
	_ context.Context,
	username, project, credentialDigest string,
) (*domain.Account, error) {
	m.m.Lock()
	defer m.m.Unlock()

	if m.err != nil {
		return nil, m.err
	}

	for _, acc := range m.accounts {
		if acc.Username == username && acc.Project == project {
			return nil, domain.ErrAccountExists
		}
	}

	m.nextID++
	m.writes++

	acc := &domain.Account{
		ID:               fmt.Sprintf("acc-%d", m.nextID),
		Username:         username,
		Project:          project,
		CredentialDigest: credentialDigest,
	}
	m.accounts[acc.ID] = acc

	cp := *acc

	return &cp, nil
}

func (m *mockAccountRepository) GetByCredentials(
	_ context.Context,
	username, project, credentialDigest string,
) (*domain.Account, error) {
	m.m.Lock()
	defer m.m.Unlock()

	if m.err != nil {
		return nil, m.err
	}

	for _, acc := range m.accounts {
		if acc.Username != username || acc.CredentialDigest != credentialDigest {
			continue
		}

		if project != "" && acc.Project != project {
			continue
		}

		cp := *acc

		return &cp, nil
	}

	return nil, domain.ErrAccountNotFound
}

func (m *mockAccountRepository) GetByIDAndSession(_ context.Context, id, session string) (*domain.Account, error) {
	m.m.Lock()
	defer m.m.Unlock()

	if m.err != nil {
		return nil, m.err
	}

	if acc, ok := m.accounts[id]; ok && acc.Session == session && session != "" {
		cp := *acc

		return &cp, nil
	}

	return nil, domain.ErrAccountNotFound
}

func (m *mockAccountRepository) UpdateSession(_ context.Context, id, session string) error {
	m.m.Lock()
	defer m.m.Unlock()

	if m.err != nil {
		return m.err
	}

	acc, ok := m.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}

	acc.Session = session
	m.writes++

	return nil
}

func (m *mockAccountRepository) UpdateData(_ context.Context, id string, data json.RawMessage) error {
	m.m.Lock()
	defer m.m.Unlock()

	if m.err != nil {
		return m.err
	}

	acc, ok := m.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}

	acc.Data = append(json.RawMessage(nil), data...)
	m.writes++

	return nil
}

func (m *mockAccountRepository) SetBanned(_ context.Context, id string, banned bool) error {
	m.m.Lock()
	defer m.m.Unlock()

	acc, ok := m.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}

	acc.Banned = banned

	return nil
}

func (m *mockAccountRepository) Close() error {
	return m.err
}

func (m *mockAccountRepository) writeCount() int {
	m.m.Lock()
	defer m.m.Unlock()

	return m.writes
}

func setupTestService(t *testing.T) (*authsvc.AuthService, *mockAccountRepository) {
	t.Helper()

	mockRepo := newMockAccountRepo()

	svc := &authsvc.AuthService{
		Config:   authsvc.AuthConfig{DigestSalt: "test-salt"},
		Accounts: mockRepo,
		Hasher:   authsvc.NewArgon2Hasher("test-salt"),
		Sessions: authsvc.UUIDSessionIssuer{},
		Log:      logging.NewNopLogger(),
	}

	return svc, mockRepo
}

func TestAuthService_Register(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		username       string
		password       string
		passwordRepeat string
		project        string
		wantErr        error
	}{
		{
			name:           "successful registration",
			username:       "alice",
			password:       "pw1",
			passwordRepeat: "pw1",
			project:        "game1",
		},
		{
			name:           "password mismatch",
			username:       "alice",
			password:       "pw1",
			passwordRepeat: "pw2",
			project:        "game1",
			wantErr:        domain.ErrPasswordMismatch,
		},
		{
			name:           "empty username",
			username:       "",
			password:       "pw1",
			passwordRepeat: "pw1",
			wantErr:        domain.ErrMissingFields,
		},
		{
			name:           "empty password",
			username:       "alice",
			password:       "",
			passwordRepeat: "",
			wantErr:        domain.ErrMissingFields,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc, mockRepo := setupTestService(t)

			err := svc.Register(context.Background(), tt.username, tt.password, tt.passwordRepeat, tt.project)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Zero(t, mockRepo.writeCount(), "validation failures must not touch the store")

				return
			}

			require.NoError(t, err)
			assert.Equal(t, 1, mockRepo.writeCount())
		})
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	t.Parallel()

	svc, _ := setupTestService(t)

	require.NoError(t, svc.Register(context.Background(), "alice", "pw1", "pw1", "game1"))

	// Same identity with a different password is still a duplicate
	err := svc.Register(context.Background(), "alice", "other", "other", "game1")
	require.ErrorIs(t, err, domain.ErrAccountExists)

	// Same username in another project is fine
	require.NoError(t, svc.Register(context.Background(), "alice", "pw1", "pw1", "game2"))
}

func TestAuthService_Register_DefaultProject(t *testing.T) {
	t.Parallel()

	svc, mockRepo := setupTestService(t)

	require.NoError(t, svc.Register(context.Background(), "alice", "pw1", "pw1", ""))

	var projects []string
	for _, acc := range mockRepo.accounts {
		projects = append(projects, acc.Project)
	}

	assert.Equal(t, []string{domain.DefaultProject}, projects)
}

func TestAuthService_Register_StoresDigestNotPlaintext(t *testing.T) {
	t.Parallel()

	svc, mockRepo := setupTestService(t)

	require.NoError(t, svc.Register(context.Background(), "alice", "pw1", "pw1", "game1"))

	for _, acc := range mockRepo.accounts {
		assert.NotEmpty(t, acc.CredentialDigest)
		assert.NotEqual(t, "pw1", acc.CredentialDigest)
	}
}

func TestAuthService_Login(t *testing.T) {
	t.Parallel()

	svc, mockRepo := setupTestService(t)

	require.NoError(t, svc.Register(context.Background(), "alice", "pw1", "pw1", "game1"))

	t.Run("correct credentials", func(t *testing.T) {
		session, err := svc.Login(context.Background(), "alice", "pw1", "game1")
		require.NoError(t, err)
		assert.NotEmpty(t, session.AccountID)
		assert.NotEmpty(t, session.Token)
	})

	t.Run("wrong password matches unknown user", func(t *testing.T) {
		_, wrongPassErr := svc.Login(context.Background(), "alice", "nope", "game1")
		_, unknownUserErr := svc.Login(context.Background(), "nobody", "pw1", "game1")

		require.ErrorIs(t, wrongPassErr, domain.ErrAccountNotFound)
		require.ErrorIs(t, unknownUserErr, domain.ErrAccountNotFound)
		assert.Equal(t, wrongPassErr, unknownUserErr)
	})

	t.Run("wrong project", func(t *testing.T) {
		_, err := svc.Login(context.Background(), "alice", "pw1", "game2")
		require.ErrorIs(t, err, domain.ErrAccountNotFound)
	})

	t.Run("empty project matches any project", func(t *testing.T) {
		session, err := svc.Login(context.Background(), "alice", "pw1", "")
		require.NoError(t, err)
		assert.NotEmpty(t, session.Token)
	})

	t.Run("each login replaces the session", func(t *testing.T) {
		first, err := svc.Login(context.Background(), "alice", "pw1", "game1")
		require.NoError(t, err)

		second, err := svc.Login(context.Background(), "alice", "pw1", "game1")
		require.NoError(t, err)

		assert.NotEqual(t, first.Token, second.Token)

		_, err = mockRepo.GetByIDAndSession(context.Background(), first.AccountID, first.Token)
		require.ErrorIs(t, err, domain.ErrAccountNotFound, "stale session must be unusable")

		_, err = mockRepo.GetByIDAndSession(context.Background(), second.AccountID, second.Token)
		require.NoError(t, err)
	})
}

func TestAuthService_Login_Banned(t *testing.T) {
	t.Parallel()

	svc, mockRepo := setupTestService(t)

	require.NoError(t, svc.Register(context.Background(), "alice", "pw1", "pw1", "game1"))

	session, err := svc.Login(context.Background(), "alice", "pw1", "game1")
	require.NoError(t, err)

	require.NoError(t, mockRepo.SetBanned(context.Background(), session.AccountID, true))

	writesBefore := mockRepo.writeCount()

	_, err = svc.Login(context.Background(), "alice", "pw1", "game1")
	require.ErrorIs(t, err, domain.ErrAccountBanned)
	assert.Equal(t, writesBefore, mockRepo.writeCount(), "banned login must not issue a session")
}

func TestAuthService_Save(t *testing.T) {
	t.Parallel()

	svc, mockRepo := setupTestService(t)

	require.NoError(t, svc.Register(context.Background(), "alice", "pw1", "pw1", "game1"))

	session, err := svc.Login(context.Background(), "alice", "pw1", "game1")
	require.NoError(t, err)

	tests := []struct {
		name    string
		id      string
		session string
		data    string
		wantErr error
	}{
		{
			name:    "successful save",
			id:      session.AccountID,
			session: session.Token,
			data:    `{"level":2}`,
		},
		{
			name:    "missing id",
			id:      "",
			session: session.Token,
			data:    `{}`,
			wantErr: domain.ErrMissingFields,
		},
		{
			name:    "missing session",
			id:      session.AccountID,
			session: "",
			data:    `{}`,
			wantErr: domain.ErrMissingFields,
		},
		{
			name:    "malformed payload",
			id:      session.AccountID,
			session: session.Token,
			data:    `{"level":`,
			wantErr: domain.ErrMalformedPayload,
		},
		{
			name:    "forged session",
			id:      session.AccountID,
			session: "not-the-session",
			data:    `{}`,
			wantErr: domain.ErrAccountNotFound,
		},
		{
			name:    "unknown id",
			id:      "acc-999",
			session: session.Token,
			data:    `{}`,
			wantErr: domain.ErrAccountNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Save(context.Background(), tt.id, tt.session, json.RawMessage(tt.data))

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)
		})
	}

	acc, err := mockRepo.GetByIDAndSession(context.Background(), session.AccountID, session.Token)
	require.NoError(t, err)
	assert.JSONEq(t, `{"level":2}`, string(acc.Data), "failed saves must not clobber the stored payload")
}

func TestAuthService_Login_Concurrent(t *testing.T) {
	t.Parallel()

	svc, mockRepo := setupTestService(t)

	require.NoError(t, svc.Register(context.Background(), "alice", "pw1", "pw1", "game1"))

	const logins = 8

	var (
		wg     sync.WaitGroup
		m      sync.Mutex
		tokens []string
	)

	for range logins {
		wg.Add(1)

		go func() {
			defer wg.Done()

			session, err := svc.Login(context.Background(), "alice", "pw1", "game1")
			if err != nil {
				return
			}

			m.Lock()
			tokens = append(tokens, session.Token)
			m.Unlock()
		}()
	}

	wg.Wait()

	require.Len(t, tokens, logins)

	// Exactly one of the issued tokens survives, intact
	var live int

	for _, token := range tokens {
		if _, err := mockRepo.GetByIDAndSession(context.Background(), "acc-1", token); err == nil {
			live++
		}
	}

	assert.Equal(t, 1, live)
}

func TestAuthService_StoreFailure(t *testing.T) {
	t.Parallel()

	svc, mockRepo := setupTestService(t)

	require.NoError(t, svc.Register(context.Background(), "alice", "pw1", "pw1", "game1"))

	mockRepo.err = assert.AnError

	err := svc.Register(context.Background(), "bob", "pw1", "pw1", "game1")
	require.ErrorIs(t, err, assert.AnError)
	require.NotErrorIs(t, err, domain.ErrAccountExists)

	_, err = svc.Login(context.Background(), "alice", "pw1", "game1")
	require.ErrorIs(t, err, assert.AnError)
	require.NotErrorIs(t, err, domain.ErrAccountNotFound)
}
