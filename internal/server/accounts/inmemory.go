package accounts

import (
	"context"
	"sync"

	"github.com/frameextractor/frameextractor/internal/common"
)

// InMemoryRepository is a map-backed directory used in tests and local
// development.
type InMemoryRepository struct {
	mu       sync.RWMutex
	accounts map[string]Account
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{accounts: make(map[string]Account)}
}

func (r *InMemoryRepository) Put(ctx context.Context, account *Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts[account.Username] = *account
	return nil
}

func (r *InMemoryRepository) Get(ctx context.Context, username string) (*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	account, ok := r.accounts[username]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &account, nil
}

func (r *InMemoryRepository) GetByFingerprint(ctx context.Context, fingerprint string) (*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, account := range r.accounts {
		if account.EmailHash == fingerprint {
			a := account
			return &a, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *InMemoryRepository) List(ctx context.Context) ([]*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*Account, 0, len(r.accounts))
	for _, account := range r.accounts {
		a := account
		result = append(result, &a)
	}
	return result, nil
}
