package store

import (
	"context"
	"sort"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"intake-agent/pkg"
)

// Memory keeps sessions in an expiring in-process cache. It honors the
// same version contract as the Postgres repo: Save with a stale version
// returns pkg.ErrConflict. Intended for development and tests.
type Memory struct {
	mu    sync.Mutex
	cache *gocache.Cache
}

// NewMemory creates a store whose sessions expire after ttl of inactivity.
// A non-positive ttl keeps sessions forever.
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	return &Memory{cache: gocache.New(ttl, 10*time.Minute)}
}

func (m *Memory) Load(_ context.Context, id string) (*pkg.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.cache.Get(id)
	if !ok {
		return nil, pkg.ErrSessionNotFound
	}
	return v.(*pkg.Session).Clone(), nil
}

func (m *Memory) Save(_ context.Context, s *pkg.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if v, ok := m.cache.Get(s.ID); ok {
		cur := v.(*pkg.Session)
		if cur.Version != s.Version {
			return pkg.ErrConflict
		}
	} else if s.Version != 0 {
		return pkg.ErrConflict
	}

	stored := s.Clone()
	stored.Version = s.Version + 1
	m.cache.SetDefault(s.ID, stored)
	s.Version = stored.Version
	return nil
}

func (m *Memory) ListByUser(_ context.Context, userID string) ([]pkg.SessionPreview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	previews := []pkg.SessionPreview{}
	for _, item := range m.cache.Items() {
		s, ok := item.Object.(*pkg.Session)
		if !ok || s.UserID != userID {
			continue
		}
		previews = append(previews, pkg.SessionPreview{
			SessionID:            s.ID,
			State:                s.State,
			EmergencyLevel:       s.EmergencyLevel,
			CompletionPercentage: s.Record.Completion() * 100,
			TurnCount:            s.TurnCount,
			PrimaryComplaint:     s.PrimaryComplaint,
			CreatedAt:            s.CreatedAt,
			UpdatedAt:            s.UpdatedAt,
		})
	}
	sort.Slice(previews, func(i, j int) bool {
		return previews[i].UpdatedAt.After(previews[j].UpdatedAt)
	})
	return previews, nil
}
