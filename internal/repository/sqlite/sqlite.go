package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"macfinder/internal/domain"
	"macfinder/internal/repository"

	_ "modernc.org/sqlite"
)

// Repository stores named switch credentials in SQLite
type Repository struct {
	db *sql.DB
}

var _ repository.CredentialRepository = (*Repository)(nil)

// New opens (or creates) the credential database at dbPath.
// An empty path or ":memory:" gives a private in-memory database.
func New(dbPath string) (*Repository, error) {
	if dbPath == "" {
		dbPath = ":memory:"
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Each :memory: connection is a separate database
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set pragma: %w", err)
	}

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS credentials (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL DEFAULT 'ssh_password',
		username TEXT NOT NULL,
		password TEXT,
		private_key TEXT,
		passphrase TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`

	_, err := r.db.Exec(schema)
	return err
}

// GetCredential loads a credential by ID; domain.ErrCredentialNotFound if absent
func (r *Repository) GetCredential(ctx context.Context, id string) (*domain.Credential, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+credentialColumns+` FROM credentials WHERE id = ?`, id)

	var cr credentialRow
	if err := row.Scan(cr.scanArgs()...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrCredentialNotFound, id)
		}
		return nil, fmt.Errorf("failed to query credential: %w", err)
	}

	return cr.toDomain(), nil
}

// PutCredential inserts or replaces a credential, keeping the original creation time
func (r *Repository) PutCredential(ctx context.Context, cred *domain.Credential) error {
	if cred.ID == "" {
		return fmt.Errorf("credential ID is required")
	}
	if err := cred.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = now
	}
	cred.UpdatedAt = now
	if cred.Type == "" {
		cred.Type = domain.CredentialTypePassword
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO credentials (`+credentialColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type = excluded.type,
			username = excluded.username,
			password = excluded.password,
			private_key = excluded.private_key,
			passphrase = excluded.passphrase,
			updated_at = excluded.updated_at
	`, credentialInsertArgs(cred)...)
	if err != nil {
		return fmt.Errorf("failed to upsert credential: %w", err)
	}

	return nil
}

// DeleteCredential removes a credential; deleting a missing ID is not an error
func (r *Repository) DeleteCredential(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM credentials WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	return nil
}

// ListCredentials returns summaries of all stored credentials ordered by ID
func (r *Repository) ListCredentials(ctx context.Context) ([]domain.CredentialSummary, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+credentialColumns+` FROM credentials ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query credentials: %w", err)
	}
	defer rows.Close()

	var summaries []domain.CredentialSummary
	for rows.Next() {
		var cr credentialRow
		if err := rows.Scan(cr.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan credential: %w", err)
		}
		summaries = append(summaries, cr.toDomain().ToSummary())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating credentials: %w", err)
	}

	return summaries, nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}
