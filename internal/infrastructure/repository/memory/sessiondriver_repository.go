package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mexicorn/podium/internal/domain/sessiondriver"
)

type driverKey struct {
	sessionID    int64
	driverNumber int
}

// SessionDriverRepository is an in-memory sessiondriver.Repository.
type SessionDriverRepository struct {
	mu     sync.RWMutex
	items  map[driverKey]sessiondriver.Driver
	nextID int64
}

func NewSessionDriverRepository() *SessionDriverRepository {
	return &SessionDriverRepository{
		items:  make(map[driverKey]sessiondriver.Driver),
		nextID: 1,
	}
}

func (r *SessionDriverRepository) ListBySession(ctx context.Context, sessionID int64) ([]sessiondriver.Driver, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]sessiondriver.Driver, 0)
	for key, item := range r.items {
		if key.sessionID == sessionID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DriverNumber < out[j].DriverNumber })
	return out, nil
}

func (r *SessionDriverRepository) GetByNumber(ctx context.Context, sessionID int64, driverNumber int) (sessiondriver.Driver, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[driverKey{sessionID: sessionID, driverNumber: driverNumber}]
	return item, ok, nil
}

func (r *SessionDriverRepository) ListSessionIDs(ctx context.Context) ([]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[int64]struct{})
	out := make([]int64, 0)
	for key := range r.items {
		if _, ok := seen[key.sessionID]; ok {
			continue
		}
		seen[key.sessionID] = struct{}{}
		out = append(out, key.sessionID)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (r *SessionDriverRepository) InsertBatch(ctx context.Context, items []sessiondriver.Driver) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inserted := 0
	for _, item := range items {
		key := driverKey{sessionID: item.SessionID, driverNumber: item.DriverNumber}
		if _, ok := r.items[key]; ok {
			continue
		}
		item.ID = r.nextID
		r.nextID++
		r.items[key] = item
		inserted++
	}
	return inserted, nil
}
