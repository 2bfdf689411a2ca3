package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Lazy-Perfectionist-Official/lazy-perfectionist/internal/domain"
	"github.com/Lazy-Perfectionist-Official/lazy-perfectionist/internal/metrics"
	"github.com/Lazy-Perfectionist-Official/lazy-perfectionist/internal/repository"
)

// DefaultClickQueryLimit caps the events returned when no limit is given
const DefaultClickQueryLimit = 100

// AnalyticsService records and reports platform click events
type AnalyticsService struct {
	repo   repository.ClickRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(repo repository.ClickRepository, logger *slog.Logger) *AnalyticsService {
	return &AnalyticsService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// RecordClick validates and stores one click. A missing timestamp is set to now.
func (s *AnalyticsService) RecordClick(ctx context.Context, click *domain.ClickEvent) error {
	if err := click.Validate(); err != nil {
		return err
	}
	click.StampIfMissing(s.now())

	if err := s.repo.Create(ctx, click); err != nil {
		return fmt.Errorf("failed to record click: %w", err)
	}

	metrics.RecordClickRecorded(click.Platform)
	s.logger.Info("Platform click tracked",
		"track", click.TrackName,
		"platform", click.PlatformName,
		"artist", click.ArtistName,
		"timestamp", click.Time().Format(time.RFC3339Nano),
	)
	return nil
}

// QueryClicks returns the newest matching events with stats over all events.
// Total and FilteredClicks count every match, not just the returned page.
func (s *AnalyticsService) QueryClicks(ctx context.Context, filter domain.ClickFilter) (*domain.ClickReport, error) {
	if filter.Limit <= 0 {
		filter.Limit = DefaultClickQueryLimit
	}

	events, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list clicks: %w", err)
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count clicks: %w", err)
	}

	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate clicks: %w", err)
	}
	stats.FilteredClicks = total

	return &domain.ClickReport{
		Stats:  stats,
		Events: events,
		Total:  total,
	}, nil
}
