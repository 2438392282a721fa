package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	clierr "github.com/ggonzalez94/awaken-cli/internal/errors"
)

const maxErrorBody = 256

type Client struct {
	httpClient *http.Client
	retries    int
	userAgent  string
}

func New(timeout time.Duration, retries int) *Client {
	if retries < 0 {
		retries = 0
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		retries:    retries,
		userAgent:  "awaken-cli/1.0",
	}
}

func (c *Client) DoJSON(ctx context.Context, req *http.Request, out any) (http.Header, error) {
	header, buf, err := c.do(ctx, req)
	if err != nil {
		return header, err
	}
	if out == nil {
		return header, nil
	}
	if len(bytes.TrimSpace(buf)) == 0 {
		return header, clierr.New(clierr.CodeUnavailable, "provider returned empty response")
	}
	if err := json.Unmarshal(buf, out); err != nil {
		return header, clierr.Wrap(clierr.CodeUnavailable, "decode provider JSON", err)
	}
	return header, nil
}

// DoRaw executes req with the same retry policy as DoJSON and returns the
// undecoded response body.
func (c *Client) DoRaw(ctx context.Context, req *http.Request) ([]byte, error) {
	_, buf, err := c.do(ctx, req)
	return buf, err
}

func (c *Client) do(ctx context.Context, req *http.Request) (http.Header, []byte, error) {
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, nil, clierr.Wrap(clierr.CodeUnavailable, "request cancelled", ctx.Err())
			case <-time.After(backoff(attempt)):
			}
		}

		cloneReq := req.Clone(ctx)
		if req.Body != nil && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, nil, clierr.Wrap(clierr.CodeInternal, "clone request body", err)
			}
			cloneReq.Body = body
		}

		resp, err := c.httpClient.Do(cloneReq)
		if err != nil {
			lastErr = mapNetError(err)
			if attempt < c.retries {
				continue
			}
			return nil, nil, lastErr
		}

		buf, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return resp.Header, nil, clierr.Wrap(clierr.CodeUnavailable, "read provider response", readErr)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = clierr.New(clierr.CodeRateLimited, "provider rate limited request")
			if attempt < c.retries {
				continue
			}
			return resp.Header, nil, lastErr
		}

		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return resp.Header, nil, clierr.New(clierr.CodeAuth, "provider authentication failed")
		}

		if resp.StatusCode >= http.StatusInternalServerError {
			lastErr = clierr.New(clierr.CodeUnavailable, fmt.Sprintf("provider unavailable (status %d)%s", resp.StatusCode, bodySnippet(buf)))
			if attempt < c.retries {
				continue
			}
			return resp.Header, nil, lastErr
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return resp.Header, nil, clierr.New(clierr.CodeUnsupported, fmt.Sprintf("provider returned unexpected status %d%s", resp.StatusCode, bodySnippet(buf)))
		}

		return resp.Header, buf, nil
	}

	if lastErr != nil {
		return nil, nil, lastErr
	}
	return nil, nil, clierr.New(clierr.CodeUnavailable, "request failed")
}

func DoBodyJSON(ctx context.Context, c *Client, method, url string, body []byte, headers map[string]string, out any) (http.Header, error) {
	req, err := newRequest(ctx, method, url, body, headers)
	if err != nil {
		return nil, err
	}
	return c.DoJSON(ctx, req, out)
}

// GetJSON issues a GET to base with the given query parameters and decodes
// the JSON response into out.
func GetJSON(ctx context.Context, c *Client, base string, query url.Values, out any) error {
	target := base
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(base, "?") {
			sep = "&"
		}
		target = base + sep + query.Encode()
	}
	req, err := newRequest(ctx, http.MethodGet, target, nil, nil)
	if err != nil {
		return err
	}
	_, err = c.DoJSON(ctx, req, out)
	return err
}

// DoBodyRaw is DoBodyJSON without decoding.
func DoBodyRaw(ctx context.Context, c *Client, method, url string, body []byte, headers map[string]string) ([]byte, error) {
	req, err := newRequest(ctx, method, url, body, headers)
	if err != nil {
		return nil, err
	}
	return c.DoRaw(ctx, req)
}

func newRequest(ctx context.Context, method, url string, body []byte, headers map[string]string) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeInternal, "build request", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
		req.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		}
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

func bodySnippet(buf []byte) string {
	text := strings.TrimSpace(string(buf))
	if text == "" {
		return ""
	}
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody] + "..."
	}
	return ": " + text
}

func mapNetError(err error) error {
	if nerr, ok := err.(net.Error); ok {
		if nerr.Timeout() {
			return clierr.Wrap(clierr.CodeUnavailable, "provider timeout", err)
		}
	}
	return clierr.Wrap(clierr.CodeUnavailable, "provider request failed", err)
}

func backoff(attempt int) time.Duration {
	base := 120 * time.Millisecond
	d := base * time.Duration(1<<uint(attempt-1))
	if d > 2*time.Second {
		d = 2 * time.Second
	}
	jitter := time.Duration(rand.Intn(75)) * time.Millisecond
	return d + jitter
}
