package accounts

import "context"

// Repository is the identity directory: a key-value store keyed by
// username with a secondary fingerprint lookup implemented as a filter
// scan. Put is a whole-record overwrite used for both creation and
// update (last-writer-wins; no optimistic concurrency).
type Repository interface {
	Put(ctx context.Context, account *Account) error

	// Get returns common.ErrNotFound when the username is absent.
	Get(ctx context.Context, username string) (*Account, error)

	// GetByFingerprint returns common.ErrNotFound when no account has
	// the given email fingerprint.
	GetByFingerprint(ctx context.Context, fingerprint string) (*Account, error)

	List(ctx context.Context) ([]*Account, error)
}
