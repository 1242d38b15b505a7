// Package history keeps the newest-first log of computed results.
package history

import (
	"context"
	"sync"

	"github.com/verte-zerg/tuistat/internal/model"
)

// Log stores history entries. Entries returns them newest first.
type Log interface {
	Prepend(ctx context.Context, entry model.HistoryEntry) error
	Clear(ctx context.Context) error
	Entries(ctx context.Context) ([]model.HistoryEntry, error)
}

// Memory is a session-scoped Log.
type Memory struct {
	mu      sync.RWMutex
	entries []model.HistoryEntry
}

// NewMemory returns an empty in-memory log.
func NewMemory() *Memory {
	return &Memory{}
}

// Prepend adds entry at the front. Duplicates are kept.
func (m *Memory) Prepend(_ context.Context, entry model.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

// Clear drops every entry.
func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = nil
	return nil
}

// Entries returns a newest-first copy.
func (m *Memory) Entries(_ context.Context) ([]model.HistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.HistoryEntry, len(m.entries))
	for i, entry := range m.entries {
		out[len(m.entries)-1-i] = entry
	}
	return out, nil
}

// Len reports the number of entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
