// Package hepgg uploads images to the hep.gg hosting service, which
// hands back a public URL usable inside webhook embeds.
package hepgg

import (
	"context"
	"fmt"
	"time"

	"emporium/lib/telemetry"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("platforms/hepgg")

const DefaultUploadUrl = "https://hep.gg/upload"

type Client struct {
	http      *resty.Client
	uploadUrl string
	token     string
}

type ClientOptions struct {
	Token string
	// defaults to the public hep.gg endpoint when empty
	UploadUrl string
}

func NewClient(opts ClientOptions) *Client {
	if opts.UploadUrl == "" {
		opts.UploadUrl = DefaultUploadUrl
	}

	client := resty.New()
	client.SetTimeout(time.Second * 30)

	telemetry.InstrumentResty(client, "platforms/hepgg/http")

	return &Client{
		http:      client,
		uploadUrl: opts.UploadUrl,
		token:     opts.Token,
	}
}

// Upload posts the file at path and returns its hosted URL.
func (c *Client) Upload(ctx context.Context, path string) (string, error) {
	ctx, span := tracer.Start(ctx, "Upload")
	defer span.End()

	var body struct {
		Url string `json:"url"`
	}
	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", c.token).
		SetFile("upload-file", path).
		SetResult(&body).
		Post(c.uploadUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upload failed")
		return "", err
	}
	if !res.IsSuccess() {
		err = fmt.Errorf("failed to upload image: HTTP %d", res.StatusCode())
		span.RecordError(err)
		span.SetStatus(codes.Error, "upload failed")
		return "", err
	}
	if body.Url == "" {
		err = fmt.Errorf("upload response is missing the hosted url")
		span.RecordError(err)
		span.SetStatus(codes.Error, "upload failed")
		return "", err
	}

	return body.Url, nil
}
