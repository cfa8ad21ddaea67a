package store

import (
	"context"
	"sync"

	"github.com/josh-kwaku/cashflow-ledger/internal/domain"
)

// MemoryPersister keeps ledgers in a map. Used by tests and local runs
// without a database.
type MemoryPersister struct {
	mu      sync.Mutex
	ledgers map[string]domain.Ledger
	saves   int
	loads   int

	// SaveErr, when set, is returned by every Save.
	SaveErr error
}

func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{ledgers: make(map[string]domain.Ledger)}
}

func (m *MemoryPersister) Load(_ context.Context, scope string) (domain.Ledger, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	return m.ledgers[scope].Clone(), nil
}

func (m *MemoryPersister) Save(_ context.Context, scope string, l domain.Ledger) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.saves++
	m.ledgers[scope] = l.Clone()
	return nil
}

// Stored returns what was last saved for scope.
func (m *MemoryPersister) Stored(scope string) (domain.Ledger, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.ledgers[scope]
	return l.Clone(), ok
}

func (m *MemoryPersister) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func (m *MemoryPersister) Loads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loads
}
