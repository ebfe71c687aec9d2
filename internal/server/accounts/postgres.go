package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/frameextractor/frameextractor/internal/common"
)

// PostgresRepository implements the identity directory on a Postgres
// table. Semantics mirror the key-value store: Put is an upsert by
// username, the fingerprint lookup is a single-attribute predicate.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Put(ctx context.Context, account *Account) error {
	query := `
		INSERT INTO accounts (username, email, email_hash, password, status, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (username)
		DO UPDATE SET
			email = EXCLUDED.email,
			email_hash = EXCLUDED.email_hash,
			password = EXCLUDED.password,
			status = EXCLUDED.status,
			role = EXCLUDED.role
	`
	_, err := r.db.ExecContext(ctx, query,
		account.Username, account.EncryptedEmail, account.EmailHash,
		account.PasswordHash, account.Status, account.Role)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, username string) (*Account, error) {
	query := `
		SELECT username, email, email_hash, password, status, role FROM accounts
		WHERE username = $1
	`
	account := &Account{}
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&account.Username, &account.EncryptedEmail, &account.EmailHash,
		&account.PasswordHash, &account.Status, &account.Role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return account, nil
}

func (r *PostgresRepository) GetByFingerprint(ctx context.Context, fingerprint string) (*Account, error) {
	query := `
		SELECT username, email, email_hash, password, status, role FROM accounts
		WHERE email_hash = $1
	`
	account := &Account{}
	err := r.db.QueryRowContext(ctx, query, fingerprint).Scan(
		&account.Username, &account.EncryptedEmail, &account.EmailHash,
		&account.PasswordHash, &account.Status, &account.Role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return account, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*Account, error) {
	query := `SELECT username, email, email_hash, password, status, role FROM accounts`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*Account
	for rows.Next() {
		account := &Account{}
		if err := rows.Scan(&account.Username, &account.EncryptedEmail, &account.EmailHash,
			&account.PasswordHash, &account.Status, &account.Role); err != nil {
			return nil, err
		}
		result = append(result, account)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
