// Package analytics records platform clicks on the client side: every click
// is kept in a small local SQLite list and forwarded to the server endpoint.
package analytics

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"github.com/Lazy-Perfectionist-Official/lazy-perfectionist/internal/domain"
)

// DefaultMaxLocalClicks is how many clicks the local list keeps
const DefaultMaxLocalClicks = 1000

const localSchema = `CREATE TABLE IF NOT EXISTS local_clicks (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	track_id      TEXT NOT NULL,
	track_name    TEXT NOT NULL,
	artist_name   TEXT NOT NULL DEFAULT '',
	platform      TEXT NOT NULL,
	platform_name TEXT NOT NULL DEFAULT '',
	url           TEXT NOT NULL DEFAULT '',
	timestamp     INTEGER NOT NULL,
	user_agent    TEXT NOT NULL DEFAULT '',
	referrer      TEXT NOT NULL DEFAULT '',
	country       TEXT NOT NULL DEFAULT ''
);`

var localColumns = []string{
	"track_id", "track_name", "artist_name", "platform", "platform_name",
	"url", "timestamp", "user_agent", "referrer", "country",
}

// LocalStore is the capped click list, oldest dropped first
type LocalStore struct {
	db        *sql.DB
	maxEvents int
}

// OpenLocalStore opens (or creates) the SQLite file at path. Use ":memory:" for a throwaway list.
func OpenLocalStore(path string, maxEvents int) (*LocalStore, error) {
	if maxEvents <= 0 {
		maxEvents = DefaultMaxLocalClicks
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(localSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate local clicks: %w", err)
	}
	return &LocalStore{db: db, maxEvents: maxEvents}, nil
}

func (s *LocalStore) Close() error { return s.db.Close() }

// Append stores a click and trims the list back to its cap
func (s *LocalStore) Append(ctx context.Context, c *domain.ClickEvent) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	insert, args, err := sq.Insert("local_clicks").
		Columns(localColumns...).
		Values(c.TrackID, c.TrackName, c.ArtistName, c.Platform, c.PlatformName,
			c.URL, c.Timestamp, c.UserAgent, c.Referrer, c.Country).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, insert, args...); err != nil {
		return fmt.Errorf("insert click %s: %w", c.TrackID, err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM local_clicks WHERE id NOT IN (SELECT id FROM local_clicks ORDER BY id DESC LIMIT ?)`,
		s.maxEvents,
	); err != nil {
		return fmt.Errorf("trim local clicks: %w", err)
	}
	return tx.Commit()
}

// List returns the stored clicks matching filter in the order they were recorded.
// filter.Limit keeps only the most recent matches.
func (s *LocalStore) List(ctx context.Context, filter domain.ClickFilter) ([]*domain.ClickEvent, error) {
	where := sq.Eq{}
	if filter.TrackID != "" {
		where["track_id"] = filter.TrackID
	}
	if filter.Platform != "" {
		where["platform"] = filter.Platform
	}

	inner := sq.Select(append([]string{"id"}, localColumns...)...).
		From("local_clicks").
		Where(where).
		OrderBy("id DESC")
	if filter.Limit > 0 {
		inner = inner.Limit(uint64(filter.Limit))
	}
	query, args, err := sq.Select(localColumns...).
		FromSelect(inner, "recent").
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query local clicks: %w", err)
	}
	defer rows.Close()

	var out []*domain.ClickEvent
	for rows.Next() {
		c := &domain.ClickEvent{}
		if err := rows.Scan(&c.TrackID, &c.TrackName, &c.ArtistName, &c.Platform, &c.PlatformName,
			&c.URL, &c.Timestamp, &c.UserAgent, &c.Referrer, &c.Country); err != nil {
			return nil, fmt.Errorf("scan local click: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate local clicks: %w", err)
	}
	return out, nil
}

// Clear deletes every stored click
func (s *LocalStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM local_clicks`); err != nil {
		return fmt.Errorf("delete local clicks: %w", err)
	}
	return nil
}
