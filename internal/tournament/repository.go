package tournament

import (
	"context"
	"sort"
	"sync"
)

type Filter struct {
	GameType GameType `json:"game_type,omitempty"`
	Status   Status   `json:"status,omitempty"`
}

func (f Filter) Match(t *Tournament) bool {
	if f.GameType != "" && t.GameType != f.GameType {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	return true
}

// Repository stores tournament snapshots. Save must ignore snapshots older
// than the stored Version.
type Repository interface {
	Save(ctx context.Context, t *Tournament) error
	Get(ctx context.Context, id string) (*Tournament, error)
	List(ctx context.Context, f Filter) ([]*Tournament, error)
	Delete(ctx context.Context, id string) error
}

// ResultRecorder is implemented by repositories that keep finished results
// apart from snapshots.
type ResultRecorder interface {
	SaveResult(ctx context.Context, r TournamentResult) error
}

type MemoryRepository struct {
	mu    sync.RWMutex
	items map[string]*Tournament
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: map[string]*Tournament{}}
}

func (r *MemoryRepository) Save(_ context.Context, t *Tournament) error {
	if t == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.items[t.ID]; ok && cur.Version > t.Version {
		return nil
	}
	r.items[t.ID] = t.Clone()
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, id string) (*Tournament, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return t.Clone(), nil
}

func (r *MemoryRepository) List(_ context.Context, f Filter) ([]*Tournament, error) {
	r.mu.RLock()
	out := make([]*Tournament, 0, len(r.items))
	for _, t := range r.items {
		if f.Match(t) {
			out = append(out, t.Clone())
		}
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}
