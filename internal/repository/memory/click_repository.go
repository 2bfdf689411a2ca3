// Package memory keeps click events in process memory.
package memory

import (
	"context"
	"sync"

	"github.com/Lazy-Perfectionist-Official/lazy-perfectionist/internal/domain"
	"github.com/Lazy-Perfectionist-Official/lazy-perfectionist/internal/repository"
)

// DefaultMaxEvents bounds the buffer when no size is given
const DefaultMaxEvents = 10000

// clickRepository is a fixed-size ring buffer. When full, the oldest event is overwritten.
type clickRepository struct {
	mu     sync.RWMutex
	events []domain.ClickEvent
	start  int // index of the oldest event
	n      int
}

// NewClickRepository creates a buffer holding at most maxEvents events
func NewClickRepository(maxEvents int) repository.ClickRepository {
	if maxEvents <= 0 {
		maxEvents = DefaultMaxEvents
	}
	return &clickRepository{events: make([]domain.ClickEvent, maxEvents)}
}

func (r *clickRepository) Create(_ context.Context, click *domain.ClickEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	size := len(r.events)
	if r.n < size {
		r.events[(r.start+r.n)%size] = *click
		r.n++
		return nil
	}
	r.events[r.start] = *click
	r.start = (r.start + 1) % size
	return nil
}

// at returns the i-th event counting from the oldest. Caller holds the lock.
func (r *clickRepository) at(i int) *domain.ClickEvent {
	return &r.events[(r.start+i)%len(r.events)]
}

func (r *clickRepository) List(_ context.Context, filter domain.ClickFilter) ([]*domain.ClickEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.ClickEvent, 0)
	for i := r.n - 1; i >= 0; i-- {
		e := r.at(i)
		if !filter.Matches(e) {
			continue
		}
		c := *e
		out = append(out, &c)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func (r *clickRepository) Count(_ context.Context, filter domain.ClickFilter) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for i := 0; i < r.n; i++ {
		if filter.Matches(r.at(i)) {
			count++
		}
	}
	return count, nil
}

func (r *clickRepository) Stats(_ context.Context) (*domain.ClickStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := domain.NewClickStats()
	for i := 0; i < r.n; i++ {
		stats.Add(r.at(i))
	}
	return stats, nil
}
