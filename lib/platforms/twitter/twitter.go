// Package twitter posts the rendered store image with a short text
// body to a Twitter account, using the v1.1 media upload + status
// update endpoints with OAuth1 request signing.
package twitter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"emporium/lib/storeimage"
	"emporium/lib/telemetry"

	"github.com/dghubble/oauth1"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("platforms/twitter")

const (
	DefaultUploadUrl = "https://upload.twitter.com/1.1/media/upload.json"
	DefaultUpdateUrl = "https://api.twitter.com/1.1/statuses/update.json"
)

// twitter rejects attachments at 5 MiB; recompress down to a little
// under that so the re-encoded file has headroom
const (
	attachmentSizeLimit = 5242880
	compressTargetSize  = 5000000
	compressRatio       = 0.75
)

type Config struct {
	Enabled      bool   `json:"enabled"`
	ApiKey       string `json:"api_key"`
	ApiSecret    string `json:"api_secret"`
	AccessToken  string `json:"access_token"`
	AccessSecret string `json:"access_secret"`
}

type Client struct {
	http      *resty.Client
	uploadUrl string
	updateUrl string
}

type ClientOptions struct {
	// both default to the public twitter endpoints when empty
	UploadUrl string
	UpdateUrl string
}

func NewClient(cfg Config, opts ClientOptions) *Client {
	if opts.UploadUrl == "" {
		opts.UploadUrl = DefaultUploadUrl
	}
	if opts.UpdateUrl == "" {
		opts.UpdateUrl = DefaultUpdateUrl
	}

	oauthConfig := oauth1.NewConfig(cfg.ApiKey, cfg.ApiSecret)
	token := oauth1.NewToken(cfg.AccessToken, cfg.AccessSecret)
	signing := oauthConfig.Client(oauth1.NoContext, token)
	signing.Timeout = time.Second * 30

	client := resty.NewWithClient(signing)

	telemetry.InstrumentResty(client, "platforms/twitter/http")

	return &Client{
		http:      client,
		uploadUrl: opts.UploadUrl,
		updateUrl: opts.UpdateUrl,
	}
}

type Post struct {
	UpdateDate  string
	UpdateTime  string
	CreatorCode string
	ImagePath   string
}

// Share tweets the store image. Images over the attachment size limit
// are recompressed to a smaller variant first.
func (c *Client) Share(ctx context.Context, post Post) error {
	ctx, span := tracer.Start(ctx, "Share")
	defer span.End()

	body := fmt.Sprintf(
		"#ModernWarfare and #Warzone Store for %s at %s UTC\n\n",
		post.UpdateDate, post.UpdateTime,
	)
	if post.CreatorCode != "" {
		body += fmt.Sprintf(
			"Consider supporting us! Use the Creator Code %s in the Store to do so.\n\n",
			post.CreatorCode,
		)
	}
	body += "Bundle Details: https://cod.tracker.gg/warzone/store"

	imagePath, err := c.attachablePath(post.ImagePath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to prepare attachment")
		return err
	}

	mediaId, err := c.uploadMedia(ctx, imagePath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to upload media")
		return err
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"status":    body,
			"media_ids": mediaId,
		}).
		Post(c.updateUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to post status")
		return err
	}
	if !res.IsSuccess() {
		err = fmt.Errorf("failed to post status: HTTP %d", res.StatusCode())
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to post status")
		return err
	}

	slog.InfoContext(ctx, "shared the store to twitter")
	return nil
}

// attachablePath returns the path to attach, recompressing into a
// sibling *_compressed.png when the original is too large.
func (c *Client) attachablePath(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.Size() < attachmentSizeLimit {
		return path, nil
	}

	compressed := strings.TrimSuffix(path, ".png") + "_compressed.png"
	err = storeimage.Compress(path, compressed, compressTargetSize, compressRatio)
	if err != nil {
		return "", err
	}
	return compressed, nil
}

func (c *Client) uploadMedia(ctx context.Context, path string) (string, error) {
	var body struct {
		MediaIdString string `json:"media_id_string"`
	}
	res, err := c.http.R().
		SetContext(ctx).
		SetFile("media", path).
		SetResult(&body).
		Post(c.uploadUrl)
	if err != nil {
		return "", err
	}
	if !res.IsSuccess() {
		return "", fmt.Errorf("failed to upload media: HTTP %d", res.StatusCode())
	}
	if body.MediaIdString == "" {
		return "", fmt.Errorf("media upload response is missing the media id")
	}
	return body.MediaIdString, nil
}
