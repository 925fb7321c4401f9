// Package discord shares the rendered store image to a set of Discord
// webhooks as a rich embed. The image itself is hosted on hep.gg
// since webhook embeds need a public URL.
package discord

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"emporium/lib/platforms/hepgg"
	"emporium/lib/telemetry"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("platforms/discord")

type Config struct {
	Enabled     bool     `json:"enabled"`
	HepToken    string   `json:"hep_token"`
	Username    string   `json:"username"`
	AvatarUrl   string   `json:"avatar_url"`
	WebhookUrls []string `json:"webhook_urls"`
}

type embedFooter struct {
	Text    string `json:"text"`
	IconUrl string `json:"icon_url"`
}

type embedImage struct {
	Url string `json:"url"`
}

type embedAuthor struct {
	Name    string `json:"name"`
	Url     string `json:"url"`
	IconUrl string `json:"icon_url"`
}

type embed struct {
	Description string      `json:"description"`
	Timestamp   string      `json:"timestamp"`
	Color       int         `json:"color"`
	Footer      embedFooter `json:"footer"`
	Image       embedImage  `json:"image"`
	Author      embedAuthor `json:"author"`
}

type webhookPayload struct {
	Username  string  `json:"username"`
	AvatarUrl string  `json:"avatar_url"`
	Embeds    []embed `json:"embeds"`
}

// Post is everything a webhook message needs besides the config.
type Post struct {
	UpdateDate  string
	UpdateTime  string
	CreatorCode string
	ImagePath   string
}

type Client struct {
	http     *resty.Client
	uploader *hepgg.Client
	cfg      Config
}

func NewClient(cfg Config) *Client {
	return NewClientWithUploader(cfg, hepgg.NewClient(hepgg.ClientOptions{Token: cfg.HepToken}))
}

func NewClientWithUploader(cfg Config, uploader *hepgg.Client) *Client {
	client := resty.New()
	client.SetTimeout(time.Second * 30)

	telemetry.InstrumentResty(client, "platforms/discord/http")

	return &Client{
		http:     client,
		uploader: uploader,
		cfg:      cfg,
	}
}

// Share uploads the image and posts the embed to every configured
// webhook. A failing webhook is logged and skipped, the rest still
// receive the post.
func (c *Client) Share(ctx context.Context, post Post) error {
	ctx, span := tracer.Start(ctx, "Share")
	defer span.End()

	body := fmt.Sprintf(
		"Modern Warfare and Warzone Store for %s at %s UTC\n\n",
		post.UpdateDate, post.UpdateTime,
	)
	if post.CreatorCode != "" {
		body += fmt.Sprintf(
			"Consider supporting us! Use the Creator Code `%s` in the Store to do so.",
			post.CreatorCode,
		)
	}
	body += "Bundle Details: [https://cod.tracker.gg/warzone/store](https://cod.tracker.gg/warzone/store)"

	imageUrl, err := c.uploader.Upload(ctx, post.ImagePath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to upload image")
		return fmt.Errorf("failed to upload store image: %w", err)
	}

	payload := webhookPayload{
		Username:  c.cfg.Username,
		AvatarUrl: c.cfg.AvatarUrl,
		Embeds: []embed{
			{
				Description: body,
				Timestamp:   time.Now().UTC().Format(time.RFC3339),
				Color:       0x1DA1F2,
				Footer: embedFooter{
					Text:    "Twitter",
					IconUrl: "https://i.hep.gg/6v2O1DLM3",
				},
				Image: embedImage{Url: imageUrl},
				Author: embedAuthor{
					Name:    "Call of Duty Tracker (@CODTracker)",
					Url:     "https://twitter.com/CODTracker",
					IconUrl: "https://i.hep.gg/x1vphWfhx",
				},
			},
		},
	}

	count := 0
	for _, webhook := range c.cfg.WebhookUrls {
		res, err := c.http.R().
			SetContext(ctx).
			SetHeader("content-type", "application/json").
			SetBody(payload).
			Post(webhook)
		if err != nil {
			slog.ErrorContext(ctx, "failed to post to discord webhook", "err", err)
			continue
		}
		if !res.IsSuccess() {
			slog.ErrorContext(
				ctx, "failed to post to discord webhook",
				"status", res.StatusCode(),
			)
			continue
		}
		count++
	}

	slog.InfoContext(ctx, "shared the store to discord", "webhooks", count)
	return nil
}
