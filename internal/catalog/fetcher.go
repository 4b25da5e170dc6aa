package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxBodySize bounds a single API response.
const maxBodySize = 16 << 20

// HTTPDoer is the HTTP collaborator of the client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type fetcher struct {
	client    HTTPDoer
	userAgent string
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
	}
}

// proxied routes target through proxy as {proxy}/{target}.
func proxied(proxy, target string) string {
	if proxy == "" {
		return target
	}
	return strings.TrimRight(proxy, "/") + "/" + target
}

// redact hides the API key in URLs that end up in errors and logs.
func redact(raw string) string {
	i := strings.IndexByte(raw, '?')
	if i < 0 {
		return raw
	}
	q, err := url.ParseQuery(raw[i+1:])
	if err != nil || !q.Has("key") {
		return raw
	}
	q.Set("key", "REDACTED")
	return raw[:i+1] + q.Encode()
}

// get performs a GET and returns the body. Transport errors and statuses
// >= 400 are reported as *RequestError.
func (f *fetcher) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &RequestError{URL: redact(target), Err: fmt.Errorf("creating request: %w", err)}
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = &url.Error{Op: uerr.Op, URL: redact(uerr.URL), Err: uerr.Err}
		}
		return nil, &RequestError{URL: redact(target), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, &RequestError{
			URL:        redact(target),
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("HTTP error: %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &RequestError{URL: redact(target), StatusCode: resp.StatusCode, Err: fmt.Errorf("reading body: %w", err)}
	}
	return body, nil
}
