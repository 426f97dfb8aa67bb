package statestore

import (
	"context"
	"sync"

	"EtfSentinel/internal/model"
)

// MemoryStore is an in-process Store for tests and dry runs. Failure modes
// are injectable so controller behavior under store outages can be exercised.
type MemoryStore struct {
	mu     sync.Mutex
	docs   map[string]*model.InvestmentState
	Writes int

	ReadErr error
	// WriteErrFrom fails every write from the Nth one on (1-based) with
	// WriteErr, simulating an outage that starts mid-protocol. Zero disables.
	WriteErrFrom int
	WriteErr     error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]*model.InvestmentState)}
}

func (m *MemoryStore) Read(_ context.Context, ticker string) (*model.InvestmentState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	state, ok := m.docs[ticker]
	if !ok {
		return nil, ErrNotFound
	}
	return state.Clone(), nil
}

func (m *MemoryStore) Write(_ context.Context, ticker string, state *model.InvestmentState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Writes++
	if m.WriteErrFrom != 0 && m.Writes >= m.WriteErrFrom {
		return m.WriteErr
	}
	m.docs[ticker] = state.Clone()
	return nil
}

// Peek returns the stored document without counting as a store read.
func (m *MemoryStore) Peek(ticker string) *model.InvestmentState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if state, ok := m.docs[ticker]; ok {
		return state.Clone()
	}
	return nil
}
