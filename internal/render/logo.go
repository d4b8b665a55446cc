package render

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPLogoFetcher downloads logos over HTTP. Relative URLs resolve against
// the public base URL.
type HTTPLogoFetcher struct {
	client   *resty.Client
	maxBytes int64
}

func NewHTTPLogoFetcher(baseURL string, timeout time.Duration, maxBytes int64) *HTTPLogoFetcher {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(1)
	return &HTTPLogoFetcher{client: c, maxBytes: maxBytes}
}

func (f *HTTPLogoFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetHeader("Accept", "image/png, image/jpeg").
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch logo %s: %w", url, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch logo %s: status %d", url, resp.StatusCode())
	}
	body := resp.Body()
	if f.maxBytes > 0 && int64(len(body)) > f.maxBytes {
		return nil, fmt.Errorf("fetch logo %s: %d bytes exceeds limit %d", url, len(body), f.maxBytes)
	}
	return body, nil
}
