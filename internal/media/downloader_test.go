package media

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func TestDownloadAll(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/img/ok.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("jpeg-bytes"))
	})
	mux.HandleFunc("/img/png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("png-bytes"))
	})
	mux.HandleFunc("/img/gone.jpg", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	d, err := NewDownloader(dir, 20, 2, testLogger)
	if err != nil {
		t.Fatalf("NewDownloader: %v", err)
	}

	images := map[string]string{
		"aaaa": srv.URL + "/img/ok.jpg",
		"bbbb": srv.URL + "/img/png",
		"cccc": srv.URL + "/img/gone.jpg",
	}
	results := d.DownloadAll(t.Context(), images)

	// The 404 is dropped, not fatal.
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if d.Count() != 2 {
		t.Errorf("Count: got %d", d.Count())
	}

	// Extensions derive from the content type.
	if _, err := os.Stat(filepath.Join(dir, "aaaa.jpg")); err != nil {
		t.Errorf("missing aaaa.jpg: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "bbbb.png")); err != nil {
		t.Errorf("missing bbbb.png: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "cccc.jpg")); err == nil {
		t.Error("failed download must not leave a file")
	}

	data, err := os.ReadFile(filepath.Join(dir, "aaaa.jpg"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "jpeg-bytes" {
		t.Errorf("content: got %q", data)
	}
}

func TestExtensionFor(t *testing.T) {
	cases := []struct {
		contentType string
		url         string
		want        string
	}{
		{"image/jpeg", "https://x/a", ".jpg"},
		{"image/png; charset=binary", "https://x/a", ".png"},
		{"image/webp", "https://x/a", ".webp"},
		{"application/octet-stream", "https://x/bottle.gif", ".gif"},
		{"", "https://x/bottle", ".jpg"},
	}
	for _, tc := range cases {
		if got := extensionFor(tc.contentType, tc.url); got != tc.want {
			t.Errorf("extensionFor(%q, %q) = %q, want %q", tc.contentType, tc.url, got, tc.want)
		}
	}
}
