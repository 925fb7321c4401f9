package twitter

import (
	"context"
	"image/color"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"emporium/lib/telemetry"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
)

func smallImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "store.png")
	err := imaging.Save(imaging.New(64, 64, color.NRGBA{R: 10, A: 255}), path)
	require.NoError(t, err)
	return path
}

// an image that compresses poorly, so its file size exceeds threshold
func largeImage(t *testing.T, threshold int64) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "store.png")
	rng := rand.New(rand.NewSource(1))
	img := imaging.New(1400, 1400, color.NRGBA{A: 255})
	for i := range img.Pix {
		img.Pix[i] = byte(rng.Intn(256))
	}
	require.NoError(t, imaging.Save(img, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Greater(t, info.Size(), threshold)
	return path
}

func testServers(t *testing.T, onStatus func(status, mediaIds string)) (upload, update *httptest.Server) {
	t.Helper()

	upload = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Contains(t, r.Header.Get("Authorization"), "OAuth")
		err := r.ParseMultipartForm(32 << 20)
		require.NoError(t, err)
		_, _, err = r.FormFile("media")
		require.NoError(t, err)

		w.Header().Set("content-type", "application/json")
		w.Write([]byte(`{"media_id_string": "710511363345354753"}`))
	}))
	t.Cleanup(upload.Close)

	update = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		onStatus(r.PostForm.Get("status"), r.PostForm.Get("media_ids"))
		w.Header().Set("content-type", "application/json")
		w.Write([]byte(`{"id_str": "1"}`))
	}))
	t.Cleanup(update.Close)

	return upload, update
}

func TestShare(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:twitter")
	defer cleanup()

	var gotStatus, gotMediaIds string
	upload, update := testServers(t, func(status, mediaIds string) {
		gotStatus = status
		gotMediaIds = mediaIds
	})

	client := NewClient(
		Config{ApiKey: "k", ApiSecret: "s", AccessToken: "at", AccessSecret: "as"},
		ClientOptions{UploadUrl: upload.URL, UpdateUrl: update.URL},
	)

	err := client.Share(context.Background(), Post{
		UpdateDate:  "Wednesday, May 20, 2020",
		UpdateTime:  "07:00",
		CreatorCode: "XYZ",
		ImagePath:   smallImage(t),
	})
	require.NoError(t, err)

	require.Contains(t, gotStatus, "#ModernWarfare and #Warzone Store for Wednesday, May 20, 2020 at 07:00 UTC")
	require.Contains(t, gotStatus, "Creator Code XYZ")
	require.Contains(t, gotStatus, "https://cod.tracker.gg/warzone/store")
	require.Equal(t, "710511363345354753", gotMediaIds)
}

func TestAttachablePathCompresses(t *testing.T) {
	client := NewClient(Config{}, ClientOptions{})

	// small files pass through untouched
	small := smallImage(t)
	path, err := client.attachablePath(small)
	require.NoError(t, err)
	require.Equal(t, small, path)

	// oversized files get recompressed into a sibling variant
	large := largeImage(t, attachmentSizeLimit)
	path, err = client.attachablePath(large)
	require.NoError(t, err)
	require.NotEqual(t, large, path)
	require.Contains(t, path, "_compressed")

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.LessOrEqual(t, info.Size(), int64(compressTargetSize))
}

func TestShareUploadFailure(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:twitter")
	defer cleanup()

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer failing.Close()

	client := NewClient(Config{}, ClientOptions{UploadUrl: failing.URL, UpdateUrl: failing.URL})
	err := client.Share(context.Background(), Post{ImagePath: smallImage(t)})
	require.Error(t, err)
}
