package snapshot

import (
	"errors"
	"sort"
	"sync"

	"github.com/tempandmajor/ottowrite-sub007/internal/interfaces"
)

// Manager hands out one snapshot store per document id. It replaces the
// process-wide singleton of the original design: stores are keyed by
// document so sessions never observe each other's history.
type Manager struct {
	cfg    *Config
	logger interfaces.Logger

	mu     sync.Mutex
	stores map[string]*Store
}

// NewManager constructs a store registry. A nil config uses defaults.
func NewManager(cfg *Config, logger interfaces.Logger) (*Manager, error) {
	if logger == nil {
		return nil, errors.New("snapshot: nil logger provided")
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Manager{
		cfg:    cfg,
		logger: logger,
		stores: make(map[string]*Store),
	}, nil
}

// Get returns the store for the document, creating it on first use.
func (m *Manager) Get(documentID string) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.stores[documentID]
	if !ok {
		// NewStore only fails on a nil logger, which the constructor rejected.
		st, _ = NewStore(m.cfg, m.logger)
		m.stores[documentID] = st
	}
	return st
}

// Remove drops the store for a document, releasing its history.
func (m *Manager) Remove(documentID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.stores, documentID)
}

// Reset drops every store. Intended for process teardown and tests.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stores = make(map[string]*Store)
}

// DocumentIDs lists the documents with live stores, sorted for determinism.
func (m *Manager) DocumentIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.stores))
	for id := range m.stores {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
