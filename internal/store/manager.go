package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"todolists/internal/model"
)

const DefaultSessionTTL = 24 * time.Hour

// Manager owns session lifecycle: create on first access, sliding expiry,
// and a per-session critical section around every read-modify-write.
type Manager struct {
	backend Backend
	ttl     time.Duration
	locks   *keyedMutex

	// now is swapped in tests.
	now func() time.Time
}

func NewManager(backend Backend, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Manager{
		backend: backend,
		ttl:     ttl,
		locks:   newKeyedMutex(),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (m *Manager) TTL() time.Duration { return m.ttl }

func (m *Manager) Backend() Backend { return m.backend }

func (m *Manager) fresh(id string) Record {
	now := m.now()
	return Record{
		ID:        id,
		Data:      model.Session{Lists: []model.List{}},
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
}

// Load returns the live session for id, or an empty one when id is unknown or
// expired. Nothing is persisted.
func (m *Manager) Load(ctx context.Context, id string) (Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return m.fresh(uuid.NewString()), nil
	}
	rec, err := m.backend.Load(ctx, id)
	if errors.Is(err, ErrSessionNotFound) {
		return m.fresh(id), nil
	}
	if err != nil {
		return Record{}, fmt.Errorf("load session: %w", err)
	}
	if rec.Expired(m.now()) {
		return m.fresh(id), nil
	}
	return rec, nil
}

// Update runs fn on the session's data while holding that session's lock and
// saves the result. A blank id starts a new session. When fn returns an error
// nothing is saved.
func (m *Manager) Update(ctx context.Context, id string, fn func(*model.Session) error) (Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		id = uuid.NewString()
	}
	unlock := m.locks.lock(id)
	defer unlock()

	rec, err := m.Load(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if err := fn(&rec.Data); err != nil {
		return Record{}, err
	}
	now := m.now()
	rec.UpdatedAt = now
	rec.ExpiresAt = now.Add(m.ttl)
	if err := m.backend.Save(ctx, rec); err != nil {
		return Record{}, fmt.Errorf("save session: %w", err)
	}
	return rec, nil
}

func (m *Manager) Destroy(ctx context.Context, id string) error {
	unlock := m.locks.lock(id)
	defer unlock()
	return m.backend.Delete(ctx, id)
}

// Sweep deletes expired sessions and reports how many were removed.
func (m *Manager) Sweep(ctx context.Context) (int, error) {
	return m.backend.DeleteExpired(ctx, m.now())
}

// Run sweeps every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration, logger *log.Logger) {
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := m.Sweep(ctx)
			if logger == nil {
				continue
			}
			if err != nil {
				logger.Error("session sweep failed", "err", err)
				continue
			}
			if n > 0 {
				logger.Debug("swept expired sessions", "count", n)
			}
		}
	}
}
