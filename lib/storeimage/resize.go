package storeimage

import (
	"fmt"
	"image"
	"os"

	"github.com/disintegration/imaging"
)

// Resize scales img to the given bounds. When exactly one of width or
// height is zero the other dimension is computed from the original
// aspect ratio; when both are given the image is stretched without
// preserving it. A same-size resize is an allowed no-op.
func Resize(img image.Image, width, height int) image.Image {
	if width == 0 && height == 0 {
		return img
	}
	return imaging.Resize(img, width, height, imaging.Lanczos)
}

// Compress re-encodes the image at inPath with its width shrunk by
// ratio on every iteration until the file at outPath is no larger
// than targetSize bytes. The width strictly decreases each round so
// the loop terminates for any positive starting size.
func Compress(inPath, outPath string, targetSize int64, ratio float64) error {
	if ratio <= 0 || ratio >= 1 {
		return fmt.Errorf("compression ratio must be in (0, 1), got %v", ratio)
	}

	info, err := os.Stat(inPath)
	if err != nil {
		return err
	}
	size := info.Size()

	img, err := imaging.Open(inPath)
	if err != nil {
		return err
	}
	width := int(float64(img.Bounds().Dx()) * ratio)

	for size > targetSize {
		if width < 1 {
			return fmt.Errorf("image at %s cannot be compressed below %d bytes", inPath, targetSize)
		}

		err = imaging.Save(Resize(img, width, 0), outPath)
		if err != nil {
			return err
		}

		info, err = os.Stat(outPath)
		if err != nil {
			return err
		}
		size = info.Size()
		width = int(float64(width) * ratio)
	}

	return nil
}
