package repository

import (
	"context"

	"github.com/Lazy-Perfectionist-Official/lazy-perfectionist/internal/domain"
)

// ClickRepository stores platform click events.
//
// Two implementations exist: an in-memory ring buffer (the default, bounded,
// lost on restart) and PostgreSQL (durable, unbounded). The service layer only
// sees this interface, so tests use a mock and the store is picked at startup.
type ClickRepository interface {
	// Create appends an event. The event must already be validated and stamped.
	Create(ctx context.Context, click *domain.ClickEvent) error

	// List returns events matching filter, newest first, at most filter.Limit
	// of them when Limit > 0
	List(ctx context.Context, filter domain.ClickFilter) ([]*domain.ClickEvent, error)

	// Count returns how many events match filter, ignoring Limit
	Count(ctx context.Context, filter domain.ClickFilter) (int64, error)

	// Stats aggregates every stored event. FilteredClicks is left for the caller.
	Stats(ctx context.Context) (*domain.ClickStats, error)
}
