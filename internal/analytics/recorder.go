package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Lazy-Perfectionist-Official/lazy-perfectionist/internal/domain"
)

// recentClicks is how many clicks Stats returns verbatim
const recentClicks = 10

// Doer sends an HTTP request; fetch.Client satisfies it
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RecorderConfig configures a Recorder
type RecorderConfig struct {
	Endpoint  string // server click endpoint; empty keeps clicks local only
	UserAgent string
	Referrer  string
}

// Recorder keeps a local copy of every click and forwards it to the server
type Recorder struct {
	store  *LocalStore
	client Doer
	cfg    RecorderConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewRecorder creates a recorder over store
func NewRecorder(store *LocalStore, client Doer, cfg RecorderConfig, logger *slog.Logger) *Recorder {
	return &Recorder{
		store:  store,
		client: client,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Stats summarises the local click list
type Stats struct {
	*domain.ClickStats
	RecentClicks []*domain.ClickEvent `json:"recentClicks"`
}

// Record stamps the click, stores it locally and posts it to the server.
// Delivery failures are logged and swallowed; only a local write error is returned.
func (r *Recorder) Record(ctx context.Context, click *domain.ClickEvent) error {
	click.Timestamp = r.now().UnixMilli()
	if click.UserAgent == "" {
		click.UserAgent = r.cfg.UserAgent
	}
	if click.Referrer == "" {
		click.Referrer = r.cfg.Referrer
	}

	if err := r.store.Append(ctx, click); err != nil {
		r.logger.Error("Failed to save click locally", "error", err)
		return err
	}

	if err := r.send(ctx, click); err != nil {
		r.logger.Warn("Failed to send analytics to server", "error", err)
	}
	return nil
}

func (r *Recorder) send(ctx context.Context, click *domain.ClickEvent) error {
	if r.cfg.Endpoint == "" || r.client == nil {
		return nil
	}

	body, err := json.Marshal(click)
	if err != nil {
		return fmt.Errorf("marshal click: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

// Clicks returns every locally stored click, oldest first
func (r *Recorder) Clicks(ctx context.Context) ([]*domain.ClickEvent, error) {
	return r.store.List(ctx, domain.ClickFilter{})
}

// ClicksByTrack returns the local clicks of one track
func (r *Recorder) ClicksByTrack(ctx context.Context, trackID string) ([]*domain.ClickEvent, error) {
	return r.store.List(ctx, domain.ClickFilter{TrackID: trackID})
}

// ClicksByPlatform returns the local clicks on one platform
func (r *Recorder) ClicksByPlatform(ctx context.Context, platform string) ([]*domain.ClickEvent, error) {
	return r.store.List(ctx, domain.ClickFilter{Platform: platform})
}

// Stats counts the local clicks and returns the last ten
func (r *Recorder) Stats(ctx context.Context) (*Stats, error) {
	clicks, err := r.Clicks(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{ClickStats: domain.NewClickStats()}
	for _, c := range clicks {
		stats.Add(c)
	}
	stats.FilteredClicks = stats.TotalClicks

	from := len(clicks) - recentClicks
	if from < 0 {
		from = 0
	}
	stats.RecentClicks = clicks[from:]
	if stats.RecentClicks == nil {
		stats.RecentClicks = []*domain.ClickEvent{}
	}
	return stats, nil
}

// Clear removes the local click list
func (r *Recorder) Clear(ctx context.Context) error {
	return r.store.Clear(ctx)
}
