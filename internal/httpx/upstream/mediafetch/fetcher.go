// Package mediafetch downloads remote media so it can be re-uploaded to a platform.
package mediafetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"time"
)

const (
	defaultTimeout = 30 * time.Second

	// MaxSize caps a single download
	MaxSize = 50 << 20
)

// File is a downloaded media file
type File struct {
	Data        []byte
	ContentType string
	Filename    string
}

// Fetcher downloads media by URL
type Fetcher struct {
	httpClient *http.Client
}

// New creates a fetcher. A nil client gets a default with a timeout.
func New(httpClient *http.Client) *Fetcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Fetcher{httpClient: httpClient}
}

// Fetch downloads a single URL
func (f *Fetcher) Fetch(ctx context.Context, url string) (*File, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("fetching %s: status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}
	if len(data) > MaxSize {
		return nil, fmt.Errorf("fetching %s: media exceeds %d bytes", url, MaxSize)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	return &File{
		Data:        data,
		ContentType: contentType,
		Filename:    path.Base(req.URL.Path),
	}, nil
}

// FetchAll downloads up to limit URLs in order, stopping at the first failure
func (f *Fetcher) FetchAll(ctx context.Context, urls []string, limit int) ([]*File, error) {
	if len(urls) > limit {
		urls = urls[:limit]
	}

	files := make([]*File, 0, len(urls))
	for _, u := range urls {
		file, err := f.Fetch(ctx, u)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, nil
}
