// Package emporium runs the store pipeline: fetch the current store,
// gate on the last-seen hash, categorize bundles, render the store
// image, publish it, then persist the new hash.
package emporium

import (
	"context"
	"errors"
	"image/color"
	"log/slog"
	"path/filepath"

	"emporium/lib/platforms/discord"
	"emporium/lib/platforms/reddit"
	"emporium/lib/platforms/twitter"
	"emporium/lib/storeimage"
	"emporium/lib/storestate"
	"emporium/lib/trackergg"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/emporium")

type Appearance struct {
	Background []int  `json:"background"`
	Text       []int  `json:"text"`
	Font       string `json:"font"`
}

type Preferences struct {
	Verify      bool   `json:"verify"`
	CreatorCode string `json:"creator_code"`
	Assets      string `json:"assets"`
}

type Config struct {
	Appearance  Appearance      `json:"appearance"`
	Preferences Preferences     `json:"preferences"`
	Twitter     twitter.Config  `json:"twitter"`
	Discord     discord.Config  `json:"discord"`
	Reddit      reddit.Config   `json:"reddit"`
}

type Service struct {
	cfg        Config
	store      *trackergg.Client
	statePath  string
	outputPath string
}

type Options struct {
	// defaults to a client against the public tracker.gg endpoints
	Store *trackergg.Client
	// defaults to latest.txt
	StatePath string
	// defaults to store.png
	OutputPath string
}

func NewService(cfg Config, opts Options) *Service {
	if opts.Store == nil {
		opts.Store = trackergg.NewClient(trackergg.ClientOptions{})
	}
	if opts.StatePath == "" {
		opts.StatePath = "latest.txt"
	}
	if opts.OutputPath == "" {
		opts.OutputPath = "store.png"
	}
	if cfg.Preferences.Assets == "" {
		cfg.Preferences.Assets = "assets"
	}

	return &Service{
		cfg:        cfg,
		store:      opts.Store,
		statePath:  opts.StatePath,
		outputPath: opts.OutputPath,
	}
}

func configColor(v []int) color.NRGBA {
	c := color.NRGBA{A: 255}
	if len(v) > 0 {
		c.R = uint8(v[0])
	}
	if len(v) > 1 {
		c.G = uint8(v[1])
	}
	if len(v) > 2 {
		c.B = uint8(v[2])
	}
	return c
}

func (s *Service) renderer() *storeimage.Renderer {
	return &storeimage.Renderer{
		Source:     s.store,
		AssetsDir:  filepath.Join(s.cfg.Preferences.Assets, "images"),
		FontPath:   filepath.Join(s.cfg.Preferences.Assets, "fonts", s.cfg.Appearance.Font+".ttf"),
		Background: configColor(s.cfg.Appearance.Background),
		Text:       configColor(s.cfg.Appearance.Text),
	}
}

// Fetch pulls and categorizes the current store without touching the
// hash gate. Used by the preview command.
func (s *Service) Fetch(ctx context.Context) (*ProcessedStore, error) {
	store, err := s.store.GetStore(ctx)
	if err != nil {
		return nil, err
	}
	return ProcessStore(ctx, store, s.cfg.Preferences.Verify)
}

// Render writes the composited store image for an already processed
// store.
func (s *Service) Render(ctx context.Context, processed *ProcessedStore) error {
	input := storeimage.Input{
		UpdateDate: processed.UpdateDate,
		Sections:   processed.Sections(),
	}
	return s.renderer().RenderToFile(ctx, input, s.outputPath)
}

// Run performs one full pipeline run. Publisher failures are isolated
// per platform; any earlier stage failure aborts everything downstream
// and leaves the hash marker untouched so the next run retries.
func (s *Service) Run(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()

	store, err := s.store.GetStore(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return err
	}

	err = storestate.Diff(s.statePath, store.Hash)
	if errors.Is(err, storestate.ErrNoUpdate) {
		return nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "diff failed")
		return err
	}

	processed, err := ProcessStore(ctx, store, s.cfg.Preferences.Verify)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "processing failed")
		return err
	}
	slog.InfoContext(
		ctx, "fetched the store",
		"date", processed.UpdateDate,
		"time", processed.UpdateTime,
	)

	err = s.Render(ctx, processed)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "render failed")
		return err
	}
	slog.InfoContext(ctx, "generated the store image", "path", s.outputPath)

	s.publish(ctx, processed)

	err = storestate.Save(s.statePath, store.Hash)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to save hash")
		return err
	}
	slog.InfoContext(ctx, "saved the latest store hash")

	return nil
}

// publish fans the finished image out to the enabled platforms, one
// after another. A platform failing never blocks the others.
func (s *Service) publish(ctx context.Context, processed *ProcessedStore) {
	if s.cfg.Twitter.Enabled {
		client := twitter.NewClient(s.cfg.Twitter, twitter.ClientOptions{})
		err := client.Share(ctx, twitter.Post{
			UpdateDate:  processed.UpdateDate,
			UpdateTime:  processed.UpdateTime,
			CreatorCode: s.cfg.Preferences.CreatorCode,
			ImagePath:   s.outputPath,
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to post to twitter", "err", err)
		}
	}

	if s.cfg.Discord.Enabled {
		client := discord.NewClient(s.cfg.Discord)
		err := client.Share(ctx, discord.Post{
			UpdateDate:  processed.UpdateDate,
			UpdateTime:  processed.UpdateTime,
			CreatorCode: s.cfg.Preferences.CreatorCode,
			ImagePath:   s.outputPath,
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to post to discord", "err", err)
		}
	}

	if s.cfg.Reddit.Enabled {
		client := reddit.NewClient(s.cfg.Reddit, reddit.ClientOptions{})
		err := client.Login(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "failed to authenticate with reddit", "err", err)
			return
		}
		err = client.Share(ctx, reddit.Post{
			UpdateDate:  processed.UpdateDate,
			UpdateTime:  processed.UpdateTime,
			CreatorCode: s.cfg.Preferences.CreatorCode,
			ImagePath:   s.outputPath,
			Featured:    processed.Featured,
			Operators:   processed.Operators,
			Blueprints:  processed.Blueprints,
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to post to reddit", "err", err)
		}
	}
}
