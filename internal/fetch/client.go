// Package fetch wraps the outbound HTTP client used for feeds and third-party APIs.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/Lazy-Perfectionist-Official/lazy-perfectionist/internal/domain"
	"github.com/Lazy-Perfectionist-Official/lazy-perfectionist/internal/metrics"
)

// Client performs single-attempt requests and treats non-2xx answers as errors.
type Client struct {
	http *http.Client
}

// Options configures the client
type Options struct {
	Timeout   time.Duration
	Transport http.RoundTripper
}

// New creates a client. A zero timeout falls back to 20s.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	transport := opts.Transport
	if transport == nil {
		transport = &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 15 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
			MaxIdleConnsPerHost:   4,
		}
	}
	return &Client{http: &http.Client{Transport: transport, Timeout: opts.Timeout}}
}

// Get issues a GET with the given headers
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return c.Do(req)
}

// Do sends req. On a non-2xx status the body is drained and closed and the
// returned error wraps domain.ErrUpstreamStatus.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.UpstreamRequestDuration.WithLabelValues(req.URL.Host, "error").Observe(time.Since(start).Seconds())
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Redacted(), err)
	}
	metrics.UpstreamRequestDuration.WithLabelValues(req.URL.Host, strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		resp.Body.Close()
		return nil, fmt.Errorf("%s %s: %w: %s", req.Method, req.URL.Host, domain.ErrUpstreamStatus, resp.Status)
	}
	return resp, nil
}
