package ingestion_engine

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Fetcher downloads a textbook file and reports its content type.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, string, error)
}

// HTTPFetcher downloads files over HTTP.
type HTTPFetcher struct {
	client *resty.Client
}

func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &HTTPFetcher{
		client: resty.New().
			SetTimeout(timeout).
			SetRetryCount(2).
			SetHeader("User-Agent", "eduai-ingestor/1.0"),
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	resp, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, "", fmt.Errorf("download %s: %w", url, err)
	}
	if resp.IsError() {
		return nil, "", fmt.Errorf("download %s: status %d", url, resp.StatusCode())
	}
	body := resp.Body()
	if len(body) == 0 {
		return nil, "", fmt.Errorf("download %s: empty body", url)
	}
	ct := resp.Header().Get("Content-Type")
	if ct == "" || ct == "application/octet-stream" {
		ct = "application/pdf"
	}
	return body, ct, nil
}
