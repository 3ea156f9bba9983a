package capture

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	robotstxt "github.com/temoto/robotstxt"
)

var robotsClient = &http.Client{Timeout: 10 * time.Second}

// Allowed reports whether robots.txt permits fetching the given URL.
// Fetch or parse failures are treated as permission, matching the
// common crawler convention for unavailable robots files.
func Allowed(ctx context.Context, target *url.URL, userAgent string) (bool, error) {
	robotsURL := &url.URL{
		Scheme: target.Scheme,
		Host:   target.Host,
		Path:   "/robots.txt",
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL.String(), nil)
	if err != nil {
		return true, err
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := robotsClient.Do(req)
	if err != nil {
		return true, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return true, err
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return true, err
	}

	group := data.FindGroup(userAgent)
	if group == nil {
		return true, nil
	}
	return group.Test(target.Path), nil
}
