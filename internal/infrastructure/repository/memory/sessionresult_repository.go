package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mexicorn/podium/internal/domain/sessionresult"
)

// SessionResultRepository is an in-memory sessionresult.Repository.
type SessionResultRepository struct {
	mu    sync.RWMutex
	items map[int64]sessionresult.Result
}

func NewSessionResultRepository() *SessionResultRepository {
	return &SessionResultRepository{
		items: make(map[int64]sessionresult.Result),
	}
}

func (r *SessionResultRepository) GetBySession(ctx context.Context, sessionID int64) (sessionresult.Result, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[sessionID]
	return item, ok, nil
}

func (r *SessionResultRepository) ListSessionIDs(ctx context.Context) ([]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]int64, 0, len(r.items))
	for id := range r.items {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (r *SessionResultRepository) Upsert(ctx context.Context, item sessionresult.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[item.SessionID] = item
	return nil
}
