package account

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mfeller/gameauth/internal/domain"
	"github.com/mfeller/gameauth/internal/infra/logging"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// SQLiteAccountRepositoryConfig holds configuration for the SQLite account repository.
type SQLiteAccountRepositoryConfig struct {
	// DatabasePath is the filesystem path to the SQLite database file
	DatabasePath string `env:"DATABASE_PATH" envDefault:"var/storage/authsvc.db"`
}

// SQLiteAccountRepository implements Repository using SQLite as the storage backend.
type SQLiteAccountRepository struct {
	db        *sql.DB
	log       logging.Logger
	writeLock *sync.Mutex // go-sqlite does not support concurrent writes
}

var _ Repository = (*SQLiteAccountRepository)(nil)

// SQLiteAccountRepositoryFactory creates a factory function that returns a new
// SQLiteAccountRepository. The factory function implements the RepositoryFactory type.
func SQLiteAccountRepositoryFactory(cfg SQLiteAccountRepositoryConfig) RepositoryFactory {
	return func() (Repository, error) {
		return NewSQLiteAccountRepository(cfg)
	}
}

// NewSQLiteAccountRepository creates a new SQLiteAccountRepository with the given
// configuration. It opens the database, applies pragmas and runs the embedded
// schema migrations. Returns an error if any initialization step fails.
func NewSQLiteAccountRepository(cfg SQLiteAccountRepositoryConfig) (*SQLiteAccountRepository, error) {
	log := logging.GetLogger("repo.account.sqlite_account_repository").With(
		logging.Group("db", "path", cfg.DatabasePath),
	)

	db, err := sql.Open("sqlite", cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}

	db.SetConnMaxLifetime(5 * time.Minute)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	if err := migrateDB(db); err != nil {
		return nil, fmt.Errorf("migrate db: %w", err)
	}

	return &SQLiteAccountRepository{
		db:        db,
		log:       log,
		writeLock: new(sync.Mutex),
	}, nil
}

func migrateDB(db *sql.DB) error {
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}

	return nil
}

// CreateAccount implements Repository.CreateAccount using SQLite.
func (r *SQLiteAccountRepository) CreateAccount(
	ctx context.Context,
	username, project, credentialDigest string,
) (*domain.Account, error) {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	acc := &domain.Account{
		ID:               uuid.New().String(),
		Username:         username,
		Project:          project,
		CredentialDigest: credentialDigest,
		CreatedAt:        time.Now().Unix(),
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO accounts (id, username, project, credential_digest, created_at) VALUES (?, ?, ?, ?, ?)",
		acc.ID,
		acc.Username,
		acc.Project,
		acc.CredentialDigest,
		acc.CreatedAt,
	)
	if err != nil {
		var liteErr *sqlite.Error
		if errors.As(err, &liteErr) {
			switch liteErr.Code() {
			case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
				fallthrough
			case sqlite3.SQLITE_CONSTRAINT_UNIQUE:
				err = errors.Join(domain.ErrAccountExists, err)
			default:
				break
			}
		}

		return nil, fmt.Errorf("insert account: %w", err)
	}

	return acc, nil
}

const accountColumns = "id, username, project, credential_digest, session, banned, data, created_at"

// GetByCredentials implements Repository.GetByCredentials using SQLite.
func (r *SQLiteAccountRepository) GetByCredentials(
	ctx context.Context,
	username, project, credentialDigest string,
) (*domain.Account, error) {
	query := "SELECT " + accountColumns + " FROM accounts WHERE username = ? AND credential_digest = ?"
	args := []any{username, credentialDigest}

	if project != "" {
		query += " AND project = ?"
		args = append(args, project)
	}

	return r.scanAccount(r.db.QueryRowContext(ctx, query, args...))
}

// GetByIDAndSession implements Repository.GetByIDAndSession using SQLite.
func (r *SQLiteAccountRepository) GetByIDAndSession(
	ctx context.Context,
	id, session string,
) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE id = ? AND session = ?",
		id,
		session,
	)

	return r.scanAccount(row)
}

func (r *SQLiteAccountRepository) scanAccount(row *sql.Row) (*domain.Account, error) {
	var (
		acc     domain.Account
		session sql.NullString
		data    sql.NullString
	)

	err := row.Scan(
		&acc.ID,
		&acc.Username,
		&acc.Project,
		&acc.CredentialDigest,
		&session,
		&acc.Banned,
		&data,
		&acc.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = errors.Join(domain.ErrAccountNotFound, err)
		}

		return nil, fmt.Errorf("query account: %w", err)
	}

	acc.Session = session.String

	if data.Valid {
		acc.Data = json.RawMessage(data.String)
	}

	return &acc, nil
}

// UpdateSession implements Repository.UpdateSession using SQLite.
// The session is replaced in a single statement, so two racing logins leave
// exactly one of the issued tokens persisted.
func (r *SQLiteAccountRepository) UpdateSession(ctx context.Context, id, session string) error {
	return r.updateColumn(ctx, "session", id, session)
}

// UpdateData implements Repository.UpdateData using SQLite.
func (r *SQLiteAccountRepository) UpdateData(ctx context.Context, id string, data json.RawMessage) error {
	return r.updateColumn(ctx, "data", id, string(data))
}

// SetBanned implements Repository.SetBanned using SQLite.
func (r *SQLiteAccountRepository) SetBanned(ctx context.Context, id string, banned bool) error {
	return r.updateColumn(ctx, "banned", id, banned)
}

func (r *SQLiteAccountRepository) updateColumn(ctx context.Context, column, id string, value any) error {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	res, err := r.db.ExecContext(ctx,
		"UPDATE accounts SET "+column+" = ? WHERE id = ?",
		value,
		id,
	)
	if err != nil {
		return fmt.Errorf("update %s: %w", column, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("update %s: %w", column, domain.ErrAccountNotFound)
	}

	return nil
}

// Close implements Repository.Close by closing the database connection.
func (r *SQLiteAccountRepository) Close() error {
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}

	return nil
}
