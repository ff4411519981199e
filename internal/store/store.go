package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"todolists/internal/model"
)

var ErrSessionNotFound = errors.New("session not found")

// Record is the persisted envelope of one session.
type Record struct {
	ID        string        `json:"id"`
	Data      model.Session `json:"data"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
	ExpiresAt time.Time     `json:"expiresAt"`
}

func (r Record) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && !now.Before(r.ExpiresAt)
}

// Backend persists session records. Implementations must not share memory
// with the records they are given or return.
type Backend interface {
	Load(ctx context.Context, id string) (Record, error)
	Save(ctx context.Context, rec Record) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]Record, error)
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
	Close() error
}

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Open returns the backend named by kind. path is only used by sqlite.
func Open(ctx context.Context, kind, path string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", BackendMemory:
		return NewMemoryBackend(), nil
	case BackendSQLite:
		return OpenSQLite(ctx, path)
	default:
		return nil, fmt.Errorf("unknown session store: %s (expected memory|sqlite)", kind)
	}
}

func encodeSession(s model.Session) (string, error) {
	s.Normalize()
	b, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeSession(js string) (model.Session, error) {
	var s model.Session
	if err := json.Unmarshal([]byte(js), &s); err != nil {
		return model.Session{}, err
	}
	s.Normalize()
	return s, nil
}
