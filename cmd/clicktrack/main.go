// Command clicktrack records platform clicks from the command line and
// inspects the local click list.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"github.com/Lazy-Perfectionist-Official/lazy-perfectionist/internal/analytics"
	"github.com/Lazy-Perfectionist-Official/lazy-perfectionist/internal/domain"
	"github.com/Lazy-Perfectionist-Official/lazy-perfectionist/internal/fetch"
	"github.com/Lazy-Perfectionist-Official/lazy-perfectionist/pkg/logger"
	"github.com/Lazy-Perfectionist-Official/lazy-perfectionist/pkg/validator"
)

type globals struct {
	DB        string        `help:"Path of the local click database." default:"clicks.db" env:"CLICKTRACK_DB" type:"path"`
	Server    string        `help:"Server click endpoint. Empty keeps clicks local." default:"http://localhost:8080/api/analytics/click" env:"CLICKTRACK_SERVER"`
	MaxClicks int           `help:"How many clicks the local list keeps." default:"1000"`
	Timeout   time.Duration `help:"Timeout for the server request." default:"10s"`
	LogLevel  string        `help:"Log level." default:"warn" enum:"debug,info,warn,error"`
}

type cli struct {
	globals

	Record recordCmd `cmd:"" help:"Record a click on a platform link."`
	Stats  statsCmd  `cmd:"" help:"Summarise the local clicks."`
	List   listCmd   `cmd:"" help:"List local clicks."`
	Clear  clearCmd  `cmd:"" help:"Delete every local click."`
}

type recordCmd struct {
	TrackID      string `arg:"" name:"track-id" help:"Catalog id of the track."`
	Platform     string `arg:"" help:"Platform key, e.g. spotify."`
	TrackName    string `required:"" help:"Track name."`
	ArtistName   string `default:"Lazy Perfectionist" help:"Artist name."`
	PlatformName string `help:"Display name of the platform. Defaults to the known name."`
	URL          string `name:"url" help:"Destination of the clicked link."`
	Referrer     string `help:"Page the click came from."`
	Country      string `help:"Visitor country code."`
}

func (c *recordCmd) Run(a *app) error {
	click := domain.NewClickEvent(c.TrackID, c.TrackName, c.ArtistName, c.Platform).
		WithClient("", c.Referrer, c.Country)

	platformName := c.PlatformName
	if platformName == "" {
		if cfg, ok := domain.LookupPlatform(c.Platform); ok {
			platformName = cfg.Name
		}
	}
	click.WithPlatformLink(platformName, c.URL)

	if err := click.Validate(); err != nil {
		return err
	}
	if c.URL != "" {
		if err := validator.ValidateURL(c.URL); err != nil {
			return fmt.Errorf("--url: %w", err)
		}
	}
	if err := a.recorder.Record(a.ctx, click); err != nil {
		return err
	}
	return a.print(click)
}

type statsCmd struct{}

func (c *statsCmd) Run(a *app) error {
	stats, err := a.recorder.Stats(a.ctx)
	if err != nil {
		return err
	}
	return a.print(stats)
}

type listCmd struct {
	Track    string `help:"Only clicks on this track id."`
	Platform string `help:"Only clicks on this platform."`
}

func (c *listCmd) Run(a *app) error {
	var (
		clicks []*domain.ClickEvent
		err    error
	)
	switch {
	case c.Track != "":
		clicks, err = a.recorder.ClicksByTrack(a.ctx, c.Track)
	case c.Platform != "":
		clicks, err = a.recorder.ClicksByPlatform(a.ctx, c.Platform)
	default:
		clicks, err = a.recorder.Clicks(a.ctx)
	}
	if err != nil {
		return err
	}
	if clicks == nil {
		clicks = []*domain.ClickEvent{}
	}
	return a.print(clicks)
}

type clearCmd struct{}

func (c *clearCmd) Run(a *app) error {
	if err := a.recorder.Clear(a.ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "local clicks cleared")
	return nil
}

// app is what every command runs against
type app struct {
	ctx      context.Context
	recorder *analytics.Recorder
	out      io.Writer
}

func (a *app) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	var c cli
	kctx := kong.Parse(&c,
		kong.Name("clicktrack"),
		kong.Description("Record and inspect platform link clicks."),
		kong.UsageOnError(),
	)

	log := logger.NewWithWriter(c.LogLevel, os.Stderr).WithFields(map[string]any{
		"component": "clicktrack",
		"db":        c.DB,
	})

	store, err := analytics.OpenLocalStore(c.DB, c.MaxClicks)
	kctx.FatalIfErrorf(err)
	defer store.Close()

	recorder := analytics.NewRecorder(store, fetch.New(fetch.Options{Timeout: c.Timeout}), analytics.RecorderConfig{
		Endpoint:  c.Server,
		UserAgent: "clicktrack/1.0",
	}, log.Logger)

	ctx, cancel := context.WithTimeout(context.Background(), c.Timeout+5*time.Second)
	defer cancel()

	err = kctx.Run(&app{ctx: ctx, recorder: recorder, out: os.Stdout})
	if err != nil {
		store.Close()
		kctx.FatalIfErrorf(err)
	}
}
