package store

import (
	"context"
	"sync"

	"github.com/mbourmaud/souk/internal/negotiation"
)

// activityCap bounds the in-memory activity buffer.
const activityCap = 512

// MemoryStore keeps the state in process memory behind a mutex. It backs the
// integrated simulation mode where buyer and seller run as goroutines in one
// process.
type MemoryStore struct {
	mu       sync.Mutex
	state    *negotiation.State
	activity []ActivityEntry
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: negotiation.NewState()}
}

// Snapshot returns a deep copy of the current state.
func (m *MemoryStore) Snapshot(ctx context.Context) (*negotiation.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone(), nil
}

// Transact applies fn to a working copy under the lock and swaps it in on
// success. A failing fn leaves the committed state untouched.
func (m *MemoryStore) Transact(ctx context.Context, fn func(*negotiation.State) error) (*negotiation.State, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	work := m.state.Clone()
	if err := fn(work); err != nil {
		return nil, err
	}
	if err := work.Validate(); err != nil {
		return nil, err
	}
	m.state = work
	return work.Clone(), nil
}

// Publish appends to the bounded activity buffer.
func (m *MemoryStore) Publish(ctx context.Context, entry ActivityEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.activity = append(m.activity, entry)
	if len(m.activity) > activityCap {
		m.activity = m.activity[len(m.activity)-activityCap:]
	}
	return nil
}

// Activity returns up to n most recent entries, newest first.
func (m *MemoryStore) Activity(n int) []ActivityEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	if n > len(m.activity) {
		n = len(m.activity)
	}
	out := make([]ActivityEntry, 0, n)
	for i := len(m.activity) - 1; i >= len(m.activity)-n; i-- {
		out = append(out, m.activity[i])
	}
	return out
}

// Reset discards all state and activity.
func (m *MemoryStore) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = negotiation.NewState()
	m.activity = nil
	return nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error { return nil }
