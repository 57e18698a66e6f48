// Package media downloads product images referenced by harvested records.
package media

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// DownloadResult tracks one downloaded image.
type DownloadResult struct {
	URL         string        `json:"url"`
	LocalPath   string        `json:"local_path"`
	Size        int64         `json:"size"`
	ContentType string        `json:"content_type"`
	Duration    time.Duration `json:"duration"`
}

// Downloader fetches images to disk with bounded concurrency.
type Downloader struct {
	outputDir  string
	client     *http.Client
	maxSize    int64
	concurrent int
	downloaded atomic.Int64
	logger     *slog.Logger
}

// NewDownloader creates a Downloader writing into outputDir.
func NewDownloader(outputDir string, maxSizeMB int64, concurrent int, logger *slog.Logger) (*Downloader, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create image dir: %w", err)
	}
	if concurrent < 1 {
		concurrent = 1
	}
	return &Downloader{
		outputDir:  outputDir,
		client:     &http.Client{Timeout: 60 * time.Second},
		maxSize:    maxSizeMB * 1024 * 1024,
		concurrent: concurrent,
		logger:     logger.With("component", "image_downloader"),
	}, nil
}

// Download fetches one image and stores it under key plus a content-type
// derived extension.
func (d *Downloader) Download(ctx context.Context, key, rawURL string) (*DownloadResult, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s: status %d", rawURL, resp.StatusCode)
	}
	if d.maxSize > 0 && resp.ContentLength > d.maxSize {
		return nil, fmt.Errorf("image too large: %d bytes (max %d)", resp.ContentLength, d.maxSize)
	}

	contentType := resp.Header.Get("Content-Type")
	localPath := filepath.Join(d.outputDir, key+extensionFor(contentType, rawURL))

	f, err := os.Create(localPath)
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	var reader io.Reader = resp.Body
	if d.maxSize > 0 {
		reader = io.LimitReader(resp.Body, d.maxSize)
	}

	size, err := io.Copy(f, reader)
	if err != nil {
		os.Remove(localPath)
		return nil, fmt.Errorf("write file: %w", err)
	}

	d.downloaded.Add(1)

	result := &DownloadResult{
		URL:         rawURL,
		LocalPath:   localPath,
		Size:        size,
		ContentType: contentType,
		Duration:    time.Since(start),
	}

	d.logger.Debug("image downloaded",
		"url", rawURL,
		"size", size,
		"path", localPath,
		"duration", result.Duration,
	)
	return result, nil
}

// DownloadAll fetches every key→URL pair with bounded concurrency. Failed
// downloads are logged and dropped; the run continues.
func (d *Downloader) DownloadAll(ctx context.Context, images map[string]string) []*DownloadResult {
	results := make([]*DownloadResult, 0, len(images))
	resultCh := make(chan *DownloadResult, len(images))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrent)
	for key, rawURL := range images {
		g.Go(func() error {
			result, err := d.Download(gctx, key, rawURL)
			if err != nil {
				d.logger.Warn("image download failed", "url", rawURL, "error", err)
				return nil
			}
			resultCh <- result
			return nil
		})
	}
	g.Wait()
	close(resultCh)

	for r := range resultCh {
		results = append(results, r)
	}
	return results
}

// Count returns the number of successful downloads.
func (d *Downloader) Count() int64 {
	return d.downloaded.Load()
}

// extensionFor picks a file extension from the content type, falling back
// to the URL path, then to .jpg.
func extensionFor(contentType, rawURL string) string {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		switch mt {
		case "image/jpeg":
			return ".jpg"
		case "image/png":
			return ".png"
		case "image/gif":
			return ".gif"
		case "image/webp":
			return ".webp"
		}
	}
	if ext := strings.ToLower(filepath.Ext(rawURL)); ext != "" && len(ext) <= 5 {
		return ext
	}
	return ".jpg"
}
