package reddit

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"emporium/lib/telemetry"
	"emporium/lib/trackergg"

	"github.com/stretchr/testify/require"
)

func testImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "store.png")
	err := os.WriteFile(path, []byte("png bytes"), 0644)
	require.NoError(t, err)
	return path
}

// fakeReddit covers the minimal API surface the client touches.
type fakeReddit struct {
	t          *testing.T
	actionBase string

	failSubmit  bool
	submissions int
	comments    int
	moderation  []string
}

func (f *fakeReddit) server() *httptest.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/auth", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(f.t, ok)
		require.Equal(f.t, "client-id", user)
		require.Equal(f.t, "client-secret", pass)

		w.Header().Set("content-type", "application/json")
		w.Write([]byte(`{"access_token": "token123", "token_type": "bearer"}`))
	})
	mux.HandleFunc("/api/v1/me", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(f.t, "Bearer token123", r.Header.Get("Authorization"))
		w.Header().Set("content-type", "application/json")
		w.Write([]byte(`{"name": "StoreBot"}`))
	})
	mux.HandleFunc("/api/media/asset.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "application/json")
		fmt.Fprintf(w, `{
			"args": {
				"action": "%s/upload-target",
				"fields": [{"name": "key", "value": "abc/store.png"}]
			}
		}`, f.actionBase)
	})
	mux.HandleFunc("/upload-target", func(w http.ResponseWriter, r *http.Request) {
		err := r.ParseMultipartForm(32 << 20)
		require.NoError(f.t, err)
		require.Equal(f.t, "abc/store.png", r.FormValue("key"))
		_, _, err = r.FormFile("file")
		require.NoError(f.t, err)
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("/api/submit", func(w http.ResponseWriter, r *http.Request) {
		if f.failSubmit {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		require.NoError(f.t, r.ParseForm())
		require.Equal(f.t, "image", r.PostForm.Get("kind"))
		require.NotEmpty(f.t, r.PostForm.Get("sr"))
		f.submissions++
		w.Header().Set("content-type", "application/json")
		w.Write([]byte(`{"json": {"errors": []}}`))
	})
	mux.HandleFunc("/user/StoreBot/submitted", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "application/json")
		w.Write([]byte(`{"data": {"children": [{"data": {"name": "t3_post1"}}]}}`))
	})
	mux.HandleFunc("/api/comment", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(f.t, r.ParseForm())
		require.Equal(f.t, "t3_post1", r.PostForm.Get("thing_id"))
		f.comments++
		w.Header().Set("content-type", "application/json")
		w.Write([]byte(`{"json": {"data": {"things": [{"data": {"name": "t1_comment1"}}]}}}`))
	})
	for _, path := range []string{"/api/approve", "/api/distinguish", "/api/lock"} {
		path := path
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			f.moderation = append(f.moderation, path)
			w.Write([]byte(`{}`))
		})
	}

	server := httptest.NewServer(mux)
	f.t.Cleanup(server.Close)
	f.actionBase = server.URL
	return server
}

func (f *fakeReddit) client(communities ...Community) *Client {
	server := f.server()
	return NewClient(
		Config{
			Username:     "StoreBot",
			Password:     "hunter2",
			ClientId:     "client-id",
			ClientSecret: "client-secret",
			Communities:  communities,
		},
		ClientOptions{AuthUrl: server.URL + "/auth", ApiUrl: server.URL},
	)
}

func TestLoginAndShare(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:reddit")
	defer cleanup()

	fake := &fakeReddit{t: t}
	client := fake.client(
		Community{Name: "CODWarzone", FlairId: "flair-1"},
		Community{Name: "ModernWarfare"},
	)

	err := client.Login(context.Background())
	require.NoError(t, err)

	err = client.Share(context.Background(), Post{
		UpdateDate: "Wednesday, May 20, 2020",
		UpdateTime: "07:00",
		ImagePath:  testImage(t),
		Featured:   []trackergg.Bundle{{ID: 1, Name: "A", Slug: "a", Price: 2400}},
	})
	require.NoError(t, err)

	require.Equal(t, 2, fake.submissions)
	require.Equal(t, 2, fake.comments)
	// approve post + approve/distinguish/lock comment, per community
	require.Len(t, fake.moderation, 8)
}

func TestShareSubmitFailureIsIsolated(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:reddit")
	defer cleanup()

	fake := &fakeReddit{t: t, failSubmit: true}
	client := fake.client(Community{Name: "CODWarzone"})

	require.NoError(t, client.Login(context.Background()))

	// the failure is logged, not returned
	err := client.Share(context.Background(), Post{ImagePath: testImage(t)})
	require.NoError(t, err)
	require.Equal(t, 0, fake.comments)
}

func TestLoginFailure(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:reddit")
	defer cleanup()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(Config{}, ClientOptions{AuthUrl: server.URL, ApiUrl: server.URL})
	err := client.Login(context.Background())
	require.Error(t, err)
}

func TestReplyBody(t *testing.T) {
	body := ReplyBody(Post{
		CreatorCode: "XYZ",
		Featured: []trackergg.Bundle{
			{ID: 1, Name: "Anime Express", Slug: "anime-express", Price: 2400},
		},
		Operators: []trackergg.Bundle{
			{ID: 2, Name: "Ghost Pack", Slug: "ghost-pack", Price: 12345},
		},
	})

	require.Contains(t, body, "Use the Creator Code `XYZ`")
	require.Contains(t, body, "## Featured\n")
	require.Contains(t, body, "* [Anime Express](https://cod.tracker.gg/warzone/db/bundles/1-anime-express) (2,400 CODPoints)")
	require.Contains(t, body, "## Operators & Identity\n")
	require.Contains(t, body, "(12,345 CODPoints)")
	require.NotContains(t, body, "## Blueprints")
}
