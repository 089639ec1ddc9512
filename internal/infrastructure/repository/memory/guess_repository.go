package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mexicorn/podium/internal/domain/guess"
)

type guessKey struct {
	userEmail string
	sessionID int64
}

// GuessRepository is an in-memory guess.Repository. Row ids are assigned on
// first insert and kept stable across overwrites, so submission order
// survives resubmissions the same way it does under postgres.
type GuessRepository struct {
	mu     sync.RWMutex
	items  map[guessKey]guess.Guess
	nextID int64
}

func NewGuessRepository() *GuessRepository {
	return &GuessRepository{
		items:  make(map[guessKey]guess.Guess),
		nextID: 1,
	}
}

func (r *GuessRepository) GetByUserAndSession(ctx context.Context, userEmail string, sessionID int64) (guess.Guess, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[guessKey{userEmail: userEmail, sessionID: sessionID}]
	return item, ok, nil
}

func (r *GuessRepository) ListBySession(ctx context.Context, sessionID int64) ([]guess.Guess, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]guess.Guess, 0)
	for key, item := range r.items {
		if key.sessionID == sessionID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *GuessRepository) Upsert(ctx context.Context, item guess.Guess) (guess.Guess, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := guessKey{userEmail: item.UserEmail, sessionID: item.SessionID}
	if existing, ok := r.items[key]; ok {
		item.ID = existing.ID
	} else {
		item.ID = r.nextID
		r.nextID++
	}
	r.items[key] = item
	return item, nil
}
