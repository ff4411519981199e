package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"todolists/internal/model"
)

type memoryEntry struct {
	rec Record // Data is zeroed; the payload lives in js.
	js  string
}

// MemoryBackend keeps sessions in process memory. Records are stored JSON
// encoded so callers never alias each other's data.
type MemoryBackend struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{entries: map[string]memoryEntry{}}
}

func (m *MemoryBackend) Load(ctx context.Context, id string) (Record, error) {
	m.mu.Lock()
	e, ok := m.entries[id]
	m.mu.Unlock()
	if !ok {
		return Record{}, ErrSessionNotFound
	}
	return e.record()
}

func (m *MemoryBackend) Save(ctx context.Context, rec Record) error {
	js, err := encodeSession(rec.Data)
	if err != nil {
		return err
	}
	rec.Data = model.Session{}
	m.mu.Lock()
	m.entries[rec.ID] = memoryEntry{rec: rec, js: js}
	m.mu.Unlock()
	return nil
}

func (m *MemoryBackend) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	delete(m.entries, id)
	m.mu.Unlock()
	return nil
}

func (m *MemoryBackend) List(ctx context.Context) ([]Record, error) {
	m.mu.Lock()
	entries := make([]memoryEntry, 0, len(m.entries))
	for _, e := range m.entries {
		entries = append(entries, e)
	}
	m.mu.Unlock()

	out := make([]Record, 0, len(entries))
	for _, e := range entries {
		rec, err := e.record()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (m *MemoryBackend) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, e := range m.entries {
		if e.rec.Expired(now) {
			delete(m.entries, id)
			n++
		}
	}
	return n, nil
}

func (m *MemoryBackend) Close() error { return nil }

func (e memoryEntry) record() (Record, error) {
	s, err := decodeSession(e.js)
	if err != nil {
		return Record{}, err
	}
	rec := e.rec
	rec.Data = s
	return rec, nil
}
