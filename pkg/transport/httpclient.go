package transport

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/richard-senior/footstats/internal/logger"
)

const (
	DefaultTimeout = 30 * time.Second
	userAgent      = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
)

// Client performs GET requests against the statistics sources. It sends browser-like
// headers (some sources refuse obvious bots) and decodes compressed bodies itself
// because it advertises Accept-Encoding explicitly.
type Client struct {
	http    *http.Client
	headers http.Header
}

// Option configures a Client
type Option func(*clientOptions)

type clientOptions struct {
	timeout  time.Duration
	caBundle string
	headers  http.Header
	rt       http.RoundTripper
}

// WithTimeout bounds every request made by the client
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) { o.timeout = d }
}

// WithCABundle appends the PEM certificates at path to the system roots, for use
// behind TLS inspecting proxies
func WithCABundle(path string) Option {
	return func(o *clientOptions) { o.caBundle = path }
}

// WithHeader adds a header sent on every request
func WithHeader(key, value string) Option {
	return func(o *clientOptions) { o.headers.Set(key, value) }
}

// WithRoundTripper replaces the underlying transport
func WithRoundTripper(rt http.RoundTripper) Option {
	return func(o *clientOptions) { o.rt = rt }
}

// NewClient returns a Client with the given options applied
func NewClient(opts ...Option) *Client {
	o := &clientOptions{timeout: DefaultTimeout, headers: http.Header{}}
	for _, opt := range opts {
		opt(o)
	}

	rt := o.rt
	if rt == nil {
		rt = &http.Transport{
			TLSClientConfig: &tls.Config{RootCAs: rootCAs(o.caBundle)},
			Proxy:           http.ProxyFromEnvironment,
		}
	}

	headers := http.Header{}
	headers.Set("User-Agent", userAgent)
	headers.Set("Accept", "text/csv, application/json, text/html, text/plain, */*")
	headers.Set("Accept-Encoding", "gzip, deflate, br")
	headers.Set("Accept-Language", "en-US,en;q=0.9")
	for k, v := range o.headers {
		headers[k] = v
	}

	return &Client{
		http: &http.Client{
			Transport: rt,
			Timeout:   o.timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				return nil
			},
		},
		headers: headers,
	}
}

func rootCAs(bundle string) *x509.CertPool {
	pool, err := x509.SystemCertPool()
	if err != nil {
		logger.Warn("Failed to get system cert pool", err)
		pool = x509.NewCertPool()
	}
	if bundle == "" {
		return pool
	}
	pem, err := os.ReadFile(bundle)
	if err != nil {
		logger.Warn("Proceeding without CA bundle", bundle, err)
		return pool
	}
	if ok := pool.AppendCertsFromPEM(pem); !ok {
		logger.Warn("Failed to append CA bundle", bundle)
	} else {
		logger.Info("Added CA bundle to root CAs", bundle)
	}
	return pool
}

// StatusError is returned when a source answers with anything other than 200
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request to %s returned error status %d", e.URL, e.StatusCode)
}

// Get fetches url and returns the decoded body. extra headers override the client's
// defaults for this request only.
func (c *Client) Get(ctx context.Context, rawURL string, extra http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range c.headers {
		req.Header[k] = v
	}
	for k, v := range extra {
		req.Header[k] = v
	}

	host := hostOf(rawURL)
	start := time.Now()
	logger.Inform("HTTP get called for", rawURL)
	resp, err := c.http.Do(req)
	if err != nil {
		observe(host, "error", start)
		return nil, fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()
	observe(host, strconv.Itoa(resp.StatusCode), start)

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	reader, err := decodeBody(resp)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}
	return data, nil
}

// decodeBody wraps the response body according to its Content-Encoding
func decodeBody(resp *http.Response) (io.ReadCloser, error) {
	switch enc := resp.Header.Get("Content-Encoding"); enc {
	case "gzip":
		logger.Debug("Handling gzip compressed content")
		r, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return r, nil
	case "deflate":
		logger.Debug("Handling deflate compressed content")
		return flate.NewReader(resp.Body), nil
	case "br":
		logger.Debug("Handling brotli compressed content")
		return io.NopCloser(brotli.NewReader(resp.Body)), nil
	case "", "identity":
		return io.NopCloser(resp.Body), nil
	default:
		logger.Warn("Unknown content encoding:", enc)
		return io.NopCloser(resp.Body), nil
	}
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return u.Host
}
