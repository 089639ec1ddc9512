package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mexicorn/podium/internal/domain/session"
)

// SessionRepository is an in-memory session.Repository used by tests and
// local development. Semantics mirror the postgres implementation,
// including the insert-skip behavior on known ids.
type SessionRepository struct {
	mu    sync.RWMutex
	items map[int64]session.Session
	now   func() time.Time
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		items: make(map[int64]session.Session),
		now:   time.Now,
	}
}

func (r *SessionRepository) List(ctx context.Context) ([]session.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]session.Session, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *SessionRepository) ListRecent(ctx context.Context, limit int) ([]session.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]session.Session, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *SessionRepository) GetByID(ctx context.Context, id int64) (session.Session, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	return item, ok, nil
}

func (r *SessionRepository) Latest(ctx context.Context) (session.Session, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest session.Session
	found := false
	for _, item := range r.items {
		if !found || item.Date.After(latest.Date) ||
			(item.Date.Equal(latest.Date) && item.ID > latest.ID) {
			latest = item
			found = true
		}
	}
	return latest, found, nil
}

func (r *SessionRepository) InsertBatch(ctx context.Context, items []session.Session) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inserted := 0
	for _, item := range items {
		if _, ok := r.items[item.ID]; ok {
			continue
		}
		if item.CreatedAt.IsZero() {
			item.CreatedAt = r.now().UTC()
		}
		r.items[item.ID] = item
		inserted++
	}
	return inserted, nil
}
