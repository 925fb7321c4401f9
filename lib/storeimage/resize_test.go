package storeimage

import (
	"image/color"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
)

func TestResizeAspect(t *testing.T) {
	img := imaging.New(200, 100, color.NRGBA{})

	// height derived from aspect ratio
	out := Resize(img, 100, 0)
	require.Equal(t, 100, out.Bounds().Dx())
	require.Equal(t, 50, out.Bounds().Dy())

	// width derived from aspect ratio, upscaling included
	out = Resize(img, 0, 200)
	require.Equal(t, 400, out.Bounds().Dx())
	require.Equal(t, 200, out.Bounds().Dy())

	// both given: stretch without preserving ratio
	out = Resize(img, 120, 130)
	require.Equal(t, 120, out.Bounds().Dx())
	require.Equal(t, 130, out.Bounds().Dy())

	// same-size resize is a no-op
	out = Resize(img, 200, 100)
	require.Equal(t, 200, out.Bounds().Dx())
	require.Equal(t, 100, out.Bounds().Dy())
}

// noisyImage makes a PNG that compresses poorly so file sizes stay
// roughly proportional to pixel count.
func noisyImage(t *testing.T, path string, size int) {
	t.Helper()
	rng := rand.New(rand.NewSource(1))
	img := imaging.New(size, size, color.NRGBA{A: 255})
	for i := range img.Pix {
		img.Pix[i] = byte(rng.Intn(256))
	}
	require.NoError(t, imaging.Save(img, path))
}

func TestCompress(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "store.png")
	out := filepath.Join(dir, "store_compressed.png")
	noisyImage(t, in, 300)

	info, err := os.Stat(in)
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(100_000))

	err = Compress(in, out, 100_000, 0.75)
	require.NoError(t, err)

	info, err = os.Stat(out)
	require.NoError(t, err)
	require.LessOrEqual(t, info.Size(), int64(100_000))
}

func TestCompressAlreadySmall(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "store.png")
	out := filepath.Join(dir, "store_compressed.png")
	noisyImage(t, in, 20)

	err := Compress(in, out, 5_000_000, 0.75)
	require.NoError(t, err)

	// under the target from the start: nothing written
	_, err = os.Stat(out)
	require.True(t, os.IsNotExist(err))
}

func TestCompressBadRatio(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "store.png")
	noisyImage(t, in, 20)

	err := Compress(in, filepath.Join(dir, "out.png"), 100, 1.5)
	require.Error(t, err)
}
