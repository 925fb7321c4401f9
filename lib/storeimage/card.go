package storeimage

import (
	"context"
	"fmt"
	"image"

	"emporium/lib/trackergg"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
)

// horizontal window cut out of the height-scaled billboard to produce
// the card-width slice
const (
	billboardCropLeft  = 258
	billboardCropRight = 1263
)

const logoWidth = 360

// buildCard composites the tile for a single bundle. Paint order,
// back to front: container frame, billboard slice with its gradient,
// bundle logo, border frame, price tag.
func (r *Renderer) buildCard(ctx context.Context, bundle trackergg.Bundle) (image.Image, error) {
	container, err := r.openAsset("card_container.png")
	if err != nil {
		return nil, err
	}
	bounds := container.Bounds()
	card := imaging.Clone(container)

	billboard, err := r.Source.DownloadImage(ctx, bundle.Billboard)
	if err != nil {
		return nil, fmt.Errorf("bundle %q billboard: %w", bundle.Name, err)
	}
	scaled := Resize(billboard, 0, bounds.Dy())
	slice := imaging.Crop(scaled, image.Rect(billboardCropLeft, 0, billboardCropRight, bounds.Dy()))

	gradient, err := r.openAsset("card_gradient.png")
	if err != nil {
		return nil, err
	}
	slice = imaging.Overlay(slice, gradient, image.Pt(0, 0), 1.0)

	sliceX := (bounds.Dx() - slice.Bounds().Dx()) / 2
	card = imaging.Overlay(card, slice, image.Pt(sliceX, 0), 1.0)

	logo, err := r.Source.DownloadImage(ctx, bundle.Logo)
	if err != nil {
		return nil, fmt.Errorf("bundle %q logo: %w", bundle.Name, err)
	}
	logo = Resize(logo, logoWidth, 0)
	card = imaging.Overlay(card, logo, image.Pt(25, 25), 1.0)

	border, err := r.openAsset("card_border.png")
	if err != nil {
		return nil, err
	}
	card = imaging.Overlay(card, border, image.Pt(0, 0), 1.0)

	tag, err := r.priceTag(bundle.PrettyPrice())
	if err != nil {
		return nil, err
	}
	tagY := bounds.Dy() - tag.Bounds().Dy() - 25
	card = imaging.Overlay(card, tag, image.Pt(25, tagY), 1.0)

	return card, nil
}

// priceTag draws the thousands-separated price onto the fixed tag asset.
func (r *Renderer) priceTag(price string) (image.Image, error) {
	tag, err := r.openAsset("price_container.png")
	if err != nil {
		return nil, err
	}

	dc := gg.NewContextForImage(tag)
	err = dc.LoadFontFace(r.FontPath, 32)
	if err != nil {
		return nil, fmt.Errorf("failed to load font %s: %w", r.FontPath, err)
	}
	dc.SetRGB(1, 1, 1)
	dc.DrawStringAnchored(price, 50, 5, 0, 1)

	return dc.Image(), nil
}
