package memory

import (
	"context"
	"sync"

	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
)

type ReconciliationRepository struct {
	mu      sync.RWMutex
	entries []domain.ReconciliationEntry
}

func NewReconciliationRepository() *ReconciliationRepository {
	return &ReconciliationRepository{}
}

func (r *ReconciliationRepository) Record(ctx context.Context, entry domain.ReconciliationEntry) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

// List returns the newest entries first.
func (r *ReconciliationRepository) List(ctx context.Context, limit int) ([]domain.ReconciliationEntry, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.ReconciliationEntry, 0, len(r.entries))
	for i := len(r.entries) - 1; i >= 0; i-- {
		out = append(out, r.entries[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
