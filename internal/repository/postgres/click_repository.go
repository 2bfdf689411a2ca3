package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Lazy-Perfectionist-Official/lazy-perfectionist/internal/domain"
	"github.com/Lazy-Perfectionist-Official/lazy-perfectionist/internal/metrics"
	"github.com/Lazy-Perfectionist-Official/lazy-perfectionist/internal/repository"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
)

// psql builds queries with $n placeholders
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var clickColumns = []string{
	"track_id", "track_name", "artist_name", "platform", "platform_name",
	"url", "clicked_at", "user_agent", "referrer", "country",
}

// clickRepository is the PostgreSQL implementation for analytics
type clickRepository struct {
	db *pgxpool.Pool
}

// NewClickRepository creates a new PostgreSQL click repository
func NewClickRepository(db *pgxpool.Pool) repository.ClickRepository {
	return &clickRepository{db: db}
}

func observe(operation string, start time.Time, err error) {
	metrics.DatabaseQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.DatabaseErrorsTotal.WithLabelValues(operation).Inc()
	}
}

// Create inserts a new click event into the database
func (r *clickRepository) Create(ctx context.Context, click *domain.ClickEvent) (err error) {
	defer func(start time.Time) { observe("insert_click", start, err) }(time.Now())

	query, args, err := insertQuery(click)
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}
	if _, err = r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to create click event: %w", err)
	}
	return nil
}

// List returns matching clicks, newest first
func (r *clickRepository) List(ctx context.Context, filter domain.ClickFilter) (clicks []*domain.ClickEvent, err error) {
	defer func(start time.Time) { observe("list_clicks", start, err) }(time.Now())

	query, args, err := listQuery(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to build list query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list clicks: %w", err)
	}
	defer rows.Close()

	clicks = make([]*domain.ClickEvent, 0)
	for rows.Next() {
		c := &domain.ClickEvent{}
		var clickedAt time.Time
		if err = rows.Scan(
			&c.TrackID,
			&c.TrackName,
			&c.ArtistName,
			&c.Platform,
			&c.PlatformName,
			&c.URL,
			&clickedAt,
			&c.UserAgent,
			&c.Referrer,
			&c.Country,
		); err != nil {
			return nil, fmt.Errorf("failed to scan click: %w", err)
		}
		c.Timestamp = clickedAt.UnixMilli()
		clicks = append(clicks, c)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating clicks: %w", err)
	}
	return clicks, nil
}

// Count returns the number of clicks matching filter
func (r *clickRepository) Count(ctx context.Context, filter domain.ClickFilter) (count int64, err error) {
	defer func(start time.Time) { observe("count_clicks", start, err) }(time.Now())

	query, args, err := countQuery(filter)
	if err != nil {
		return 0, fmt.Errorf("failed to build count query: %w", err)
	}
	if err = r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count clicks: %w", err)
	}
	return count, nil
}

// Stats aggregates all clicks per track, platform and UTC day
func (r *clickRepository) Stats(ctx context.Context) (stats *domain.ClickStats, err error) {
	defer func(start time.Time) { observe("click_stats", start, err) }(time.Now())

	stats = domain.NewClickStats()
	if stats.TotalClicks, err = r.Count(ctx, domain.ClickFilter{}); err != nil {
		return nil, err
	}

	groups := []struct {
		expr string
		into map[string]int64
	}{
		{"track_id", stats.ClicksByTrack},
		{"platform", stats.ClicksByPlatform},
		{"to_char(clicked_at AT TIME ZONE 'UTC', 'YYYY-MM-DD')", stats.ClicksByDate},
	}
	for _, g := range groups {
		if err = r.groupCount(ctx, g.expr, g.into); err != nil {
			return nil, err
		}
	}
	return stats, nil
}

func (r *clickRepository) groupCount(ctx context.Context, expr string, into map[string]int64) error {
	query, args, err := groupQuery(expr)
	if err != nil {
		return fmt.Errorf("failed to build group query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to group clicks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var n int64
		if err := rows.Scan(&key, &n); err != nil {
			return fmt.Errorf("failed to scan group: %w", err)
		}
		into[key] = n
	}
	return rows.Err()
}

func insertQuery(c *domain.ClickEvent) (string, []any, error) {
	return psql.Insert("platform_clicks").
		Columns(clickColumns...).
		Values(c.TrackID, c.TrackName, c.ArtistName, c.Platform, c.PlatformName,
			c.URL, c.Time(), c.UserAgent, c.Referrer, c.Country).
		ToSql()
}

func applyFilter(b sq.SelectBuilder, filter domain.ClickFilter) sq.SelectBuilder {
	if filter.TrackID != "" {
		b = b.Where(sq.Eq{"track_id": filter.TrackID})
	}
	if filter.Platform != "" {
		b = b.Where(sq.Eq{"platform": filter.Platform})
	}
	return b
}

func listQuery(filter domain.ClickFilter) (string, []any, error) {
	b := applyFilter(psql.Select(clickColumns...).From("platform_clicks"), filter).
		OrderBy("clicked_at DESC", "id DESC")
	if filter.Limit > 0 {
		b = b.Limit(uint64(filter.Limit))
	}
	return b.ToSql()
}

func countQuery(filter domain.ClickFilter) (string, []any, error) {
	return applyFilter(psql.Select("COUNT(*)").From("platform_clicks"), filter).ToSql()
}

func groupQuery(expr string) (string, []any, error) {
	return psql.Select(expr, "COUNT(*)").
		From("platform_clicks").
		GroupBy(expr).
		ToSql()
}
