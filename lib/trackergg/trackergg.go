package trackergg

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"time"

	"emporium/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/disintegration/imaging"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("trackergg")

const (
	DefaultStoreUrl     = "https://api.tracker.gg/api/v1/modern-warfare/store"
	DefaultImageBaseUrl = "https://titles.trackercdn.com/modern-warfare/db/images/"
)

type Client struct {
	http         *resty.Client
	storeUrl     string
	imageBaseUrl string
}

type ClientOptions struct {
	// both default to the public tracker.gg endpoints when empty
	StoreUrl     string
	ImageBaseUrl string
}

func NewClient(opts ClientOptions) *Client {
	if opts.StoreUrl == "" {
		opts.StoreUrl = DefaultStoreUrl
	}
	if opts.ImageBaseUrl == "" {
		opts.ImageBaseUrl = DefaultImageBaseUrl
	}

	client := resty.New()
	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetTimeout(time.Second * 30)
	// api.tracker.gg sits behind cloudflare
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	telemetry.InstrumentResty(client, "trackergg/http")

	return &Client{
		http:         client,
		storeUrl:     opts.StoreUrl,
		imageBaseUrl: opts.ImageBaseUrl,
	}
}

// GetStore fetches the current store snapshot from the tracker API.
func (c *Client) GetStore(ctx context.Context) (*Store, error) {
	ctx, span := tracer.Start(ctx, "GetStore")
	defer span.End()

	var body struct {
		Data Store `json:"data"`
	}
	res, err := c.http.R().
		SetContext(ctx).
		SetResult(&body).
		Get(c.storeUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch store")
		return nil, err
	}
	if !res.IsSuccess() {
		err = fmt.Errorf("failed to fetch store: HTTP %d", res.StatusCode())
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch store")
		return nil, err
	}
	if body.Data.Hash == "" {
		err = fmt.Errorf("store response is missing its content hash")
		span.RecordError(err)
		span.SetStatus(codes.Error, "malformed store response")
		return nil, err
	}

	return &body.Data, nil
}

// DownloadImage fetches and decodes one of the store's remote image
// assets (billboards and logos) by its image ref.
func (c *Client) DownloadImage(ctx context.Context, ref string) (image.Image, error) {
	ctx, span := tracer.Start(ctx, "DownloadImage")
	defer span.End()

	res, err := c.http.R().
		SetContext(ctx).
		Get(c.imageBaseUrl + ref + ".png")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to download image")
		return nil, err
	}
	if !res.IsSuccess() {
		err = fmt.Errorf("failed to download image %q: HTTP %d", ref, res.StatusCode())
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to download image")
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode image")
		return nil, fmt.Errorf("failed to decode image %q: %w", ref, err)
	}
	return img, nil
}
