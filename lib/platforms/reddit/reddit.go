// Package reddit shares the rendered store image to a set of
// subreddits: an image post per community, a threaded reply listing
// every bundle, and best-effort moderator actions on both.
package reddit

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"emporium/lib/telemetry"
	"emporium/lib/trackergg"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("platforms/reddit")

const (
	DefaultAuthUrl = "https://www.reddit.com/api/v1/access_token"
	DefaultApiUrl  = "https://oauth.reddit.com"
)

const userAgent = "Emporium by /u/LackingAGoodName (https://github.com/EthanC/Emporium)"

type Community struct {
	Name         string `json:"name"`
	FlairId      string `json:"flair_id"`
	FlairText    string `json:"flair_text"`
	CollectionId string `json:"collection_id"`
}

type Config struct {
	Enabled      bool        `json:"enabled"`
	Username     string      `json:"username"`
	Password     string      `json:"password"`
	ClientId     string      `json:"client_id"`
	ClientSecret string      `json:"client_secret"`
	Communities  []Community `json:"communities"`
}

type Client struct {
	http *resty.Client
	// bare client for the media upload lease target, which rejects
	// reddit auth headers
	upload  *resty.Client
	authUrl string
	apiUrl  string
	cfg     Config
	// authenticated account name, set by Login
	me string
}

type ClientOptions struct {
	// both default to the public reddit endpoints when empty
	AuthUrl string
	ApiUrl  string
}

func NewClient(cfg Config, opts ClientOptions) *Client {
	if opts.AuthUrl == "" {
		opts.AuthUrl = DefaultAuthUrl
	}
	if opts.ApiUrl == "" {
		opts.ApiUrl = DefaultApiUrl
	}

	client := resty.New()
	client.SetBaseURL(opts.ApiUrl)
	client.SetHeader("user-agent", userAgent)
	client.SetTimeout(time.Second * 30)

	upload := resty.New()
	upload.SetTimeout(time.Second * 30)

	telemetry.InstrumentResty(client, "platforms/reddit/http")
	telemetry.InstrumentResty(upload, "platforms/reddit/upload")

	return &Client{
		http:    client,
		upload:  upload,
		authUrl: opts.AuthUrl,
		apiUrl:  opts.ApiUrl,
		cfg:     cfg,
	}
}

// Login performs the script-app password grant and verifies the
// session is writable. Nothing is posted when this fails.
func (c *Client) Login(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Login")
	defer span.End()

	var token struct {
		AccessToken string `json:"access_token"`
	}
	res, err := c.http.R().
		SetContext(ctx).
		SetBasicAuth(c.cfg.ClientId, c.cfg.ClientSecret).
		SetFormData(map[string]string{
			"grant_type": "password",
			"username":   c.cfg.Username,
			"password":   c.cfg.Password,
		}).
		SetResult(&token).
		Post(c.authUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to authenticate")
		return err
	}
	if !res.IsSuccess() || token.AccessToken == "" {
		err = fmt.Errorf("failed to authenticate with reddit: HTTP %d", res.StatusCode())
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to authenticate")
		return err
	}
	c.http.SetAuthToken(token.AccessToken)

	var me struct {
		Name string `json:"name"`
	}
	res, err = c.http.R().
		SetContext(ctx).
		SetResult(&me).
		Get("/api/v1/me")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to verify session")
		return err
	}
	if !res.IsSuccess() || me.Name == "" {
		err = fmt.Errorf("reddit session is not writable")
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to verify session")
		return err
	}
	c.me = me.Name

	return nil
}

type Post struct {
	UpdateDate  string
	UpdateTime  string
	CreatorCode string
	ImagePath   string
	Featured    []trackergg.Bundle
	Operators   []trackergg.Bundle
	Blueprints  []trackergg.Bundle
}

// Share posts to every configured community. A failed submission is
// logged and the loop moves on; moderation failures never undo the
// post or the reply.
func (c *Client) Share(ctx context.Context, post Post) error {
	ctx, span := tracer.Start(ctx, "Share")
	defer span.End()

	title := fmt.Sprintf(
		"Modern Warfare and Warzone Store for %s at %s UTC",
		post.UpdateDate, post.UpdateTime,
	)
	reply := ReplyBody(post)

	count := 0
	for _, community := range c.cfg.Communities {
		postName, err := c.submitImage(ctx, community, title, post.ImagePath)
		if err != nil {
			slog.ErrorContext(
				ctx, "failed to submit to community",
				"community", community.Name,
				"err", err,
			)
			continue
		}

		commentName, err := c.comment(ctx, postName, reply)
		if err != nil {
			slog.ErrorContext(
				ctx, "failed to reply to submission",
				"community", community.Name,
				"err", err,
			)
			count++
			continue
		}

		c.moderate(ctx, postName, commentName)
		count++
	}

	slog.InfoContext(ctx, "shared the store to reddit", "communities", count)
	return nil
}

// submitImage runs reddit's image submission flow: request a media
// asset lease, upload the file to the lease target, then submit a
// post of kind image pointing at the uploaded asset.
func (c *Client) submitImage(ctx context.Context, community Community, title, imagePath string) (string, error) {
	var lease struct {
		Args struct {
			Action string `json:"action"`
			Fields []struct {
				Name  string `json:"name"`
				Value string `json:"value"`
			} `json:"fields"`
		} `json:"args"`
	}
	res, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"filepath": "store.png",
			"mimetype": "image/png",
		}).
		SetResult(&lease).
		Post("/api/media/asset.json")
	if err != nil {
		return "", err
	}
	if !res.IsSuccess() || lease.Args.Action == "" {
		return "", fmt.Errorf("failed to lease a media asset: HTTP %d", res.StatusCode())
	}

	action := lease.Args.Action
	if strings.HasPrefix(action, "//") {
		action = "https:" + action
	}

	fields := map[string]string{}
	key := ""
	for _, field := range lease.Args.Fields {
		fields[field.Name] = field.Value
		if field.Name == "key" {
			key = field.Value
		}
	}

	res, err = c.upload.R().
		SetContext(ctx).
		SetFormData(fields).
		SetFile("file", imagePath).
		Post(action)
	if err != nil {
		return "", err
	}
	if !res.IsSuccess() {
		return "", fmt.Errorf("failed to upload media asset: HTTP %d", res.StatusCode())
	}
	assetUrl := action + "/" + key

	form := map[string]string{
		"api_type":           "json",
		"kind":               "image",
		"sr":                 community.Name,
		"title":              title,
		"url":                assetUrl,
		"sendreplies":        "false",
		"validate_on_submit": "true",
	}
	if community.FlairId != "" {
		form["flair_id"] = community.FlairId
	}
	if community.FlairText != "" {
		form["flair_text"] = community.FlairText
	}
	if community.CollectionId != "" {
		form["collection_id"] = community.CollectionId
	}

	res, err = c.http.R().
		SetContext(ctx).
		SetFormData(form).
		Post("/api/submit")
	if err != nil {
		return "", err
	}
	if !res.IsSuccess() {
		return "", fmt.Errorf("failed to submit: HTTP %d", res.StatusCode())
	}

	// image submissions do not return the created post, reddit hands
	// back a websocket to wait on instead. look the post up through
	// the account's newest submission rather than speaking websockets.
	return c.latestSubmission(ctx)
}

func (c *Client) latestSubmission(ctx context.Context) (string, error) {
	var listing struct {
		Data struct {
			Children []struct {
				Data struct {
					Name string `json:"name"`
				} `json:"data"`
			} `json:"children"`
		} `json:"data"`
	}
	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("limit", "1").
		SetResult(&listing).
		Get(fmt.Sprintf("/user/%s/submitted", c.me))
	if err != nil {
		return "", err
	}
	if !res.IsSuccess() || len(listing.Data.Children) == 0 {
		return "", fmt.Errorf("failed to locate the submitted post")
	}
	return listing.Data.Children[0].Data.Name, nil
}

func (c *Client) comment(ctx context.Context, parent, body string) (string, error) {
	var created struct {
		Json struct {
			Data struct {
				Things []struct {
					Data struct {
						Name string `json:"name"`
					} `json:"data"`
				} `json:"things"`
			} `json:"data"`
		} `json:"json"`
	}
	res, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"api_type": "json",
			"thing_id": parent,
			"text":     body,
		}).
		SetResult(&created).
		Post("/api/comment")
	if err != nil {
		return "", err
	}
	if !res.IsSuccess() {
		return "", fmt.Errorf("failed to comment: HTTP %d", res.StatusCode())
	}
	if len(created.Json.Data.Things) == 0 {
		return "", fmt.Errorf("comment response is missing the created comment")
	}
	return created.Json.Data.Things[0].Data.Name, nil
}

// moderate applies the moderator actions: approve the post, then
// approve, distinguish and lock the reply. Every action is
// best-effort, a failure is logged and the rest still run.
func (c *Client) moderate(ctx context.Context, postName, commentName string) {
	actions := []struct {
		path string
		form map[string]string
	}{
		{path: "/api/approve", form: map[string]string{"id": postName}},
		{path: "/api/approve", form: map[string]string{"id": commentName}},
		{path: "/api/distinguish", form: map[string]string{
			"id": commentName, "how": "yes", "sticky": "true",
		}},
		{path: "/api/lock", form: map[string]string{"id": commentName}},
	}

	for _, action := range actions {
		res, err := c.http.R().
			SetContext(ctx).
			SetFormData(action.form).
			Post(action.path)
		if err != nil {
			slog.WarnContext(
				ctx, "failed to perform moderator action",
				"action", action.path,
				"err", err,
			)
			continue
		}
		if !res.IsSuccess() {
			slog.WarnContext(
				ctx, "failed to perform moderator action",
				"action", action.path,
				"status", res.StatusCode(),
			)
		}
	}
}

// ReplyBody builds the markdown reply listing every bundle grouped by
// category as a link with its thousands-separated price.
func ReplyBody(post Post) string {
	var body strings.Builder

	if post.CreatorCode != "" {
		fmt.Fprintf(
			&body,
			"Consider supporting us! Use the Creator Code `%s` in the Store to do so.\n\n",
			post.CreatorCode,
		)
	}

	sections := []struct {
		title   string
		bundles []trackergg.Bundle
	}{
		{title: "Featured", bundles: post.Featured},
		{title: "Operators & Identity", bundles: post.Operators},
		{title: "Blueprints", bundles: post.Blueprints},
	}
	for _, section := range sections {
		if len(section.bundles) == 0 {
			continue
		}

		fmt.Fprintf(&body, "## %s\n", section.title)
		for _, bundle := range section.bundles {
			fmt.Fprintf(
				&body,
				"\n* [%s](%s) (%s CODPoints)",
				bundle.Name, bundle.URL(), bundle.PrettyPrice(),
			)
		}
		body.WriteString("\n\n")
	}

	return body.String()
}
