// Package storeimage renders the composited store overview image: a
// header zone with the game logo and store date, then one two-column
// grid of bundle cards per non-empty category.
package storeimage

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"path/filepath"

	"emporium/lib/trackergg"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("storeimage")

// ImageSource supplies the remote billboard/logo images referenced by
// bundles. *trackergg.Client implements it.
type ImageSource interface {
	DownloadImage(ctx context.Context, ref string) (image.Image, error)
}

type Renderer struct {
	Source ImageSource
	// directory holding the fixed assets: game_logo.png,
	// card_container.png, card_gradient.png, card_border.png,
	// price_container.png
	AssetsDir string
	// TTF file used for the date header, section titles and price tags
	FontPath   string
	Background color.NRGBA
	Text       color.NRGBA
}

// Section is one category column of the rendered image, in display
// order. Empty sections must be filtered out by the caller.
type Section struct {
	Title   string
	Bundles []trackergg.Bundle
}

type Input struct {
	UpdateDate string
	Sections   []Section
}

func (r *Renderer) openAsset(name string) (image.Image, error) {
	img, err := imaging.Open(filepath.Join(r.AssetsDir, name))
	if err != nil {
		return nil, fmt.Errorf("failed to open asset %s: %w", name, err)
	}
	return img, nil
}

// Render composites the full store image. Any asset load or remote
// image failure fails the whole render, there are no placeholder cards.
func (r *Renderer) Render(ctx context.Context, in Input) (image.Image, error) {
	ctx, span := tracer.Start(ctx, "Render")
	defer span.End()

	counts := make([]int, len(in.Sections))
	for i, section := range in.Sections {
		counts[i] = len(section.Bundles)
	}
	width, height := Dimensions(counts...)

	dc := gg.NewContext(width, height)
	dc.SetColor(r.Background)
	dc.Clear()

	gameLogo, err := r.openAsset("game_logo.png")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to open game logo")
		return nil, err
	}
	gameLogo = Resize(gameLogo, 1000, 0)
	dc.DrawImage(gameLogo, (width-gameLogo.Bounds().Dx())/2, Margin)

	err = dc.LoadFontFace(r.FontPath, 72)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load font")
		return nil, fmt.Errorf("failed to load font %s: %w", r.FontPath, err)
	}
	dc.SetColor(r.Text)
	dc.DrawStringAnchored(in.UpdateDate, float64(width)/2, 275, 0.5, 1)

	sectionX := 0
	for _, section := range in.Sections {
		if len(section.Bundles) == 0 {
			continue
		}

		dc.SetColor(r.Text)
		dc.DrawStringAnchored(section.Title, float64(sectionX+Margin), HeaderZone, 0, 1)

		for i, bundle := range section.Bundles {
			card, err := r.buildCard(ctx, bundle)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "failed to build card")
				return nil, err
			}

			x, y := cardPosition(sectionX, i)
			dc.DrawImage(card, x, y)
		}

		sectionX += SectionWidth
	}

	return dc.Image(), nil
}

// RenderToFile renders the store image and writes it as a PNG.
func (r *Renderer) RenderToFile(ctx context.Context, in Input, path string) error {
	img, err := r.Render(ctx, in)
	if err != nil {
		return err
	}
	return imaging.Save(img, path)
}
