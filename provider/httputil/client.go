package httputil

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultUserAgent = "fxcache/0.1.0"

	// DefaultMaxBodySize fits the full ECB history several times over
	DefaultMaxBodySize int64 = 64 << 20
)

var (
	ErrStatusCode   = errors.New("http status != 200")
	ErrBodyTooLarge = errors.New("response body exceeds limit")
)

// StatusError carries the response status of a failed feed request
type StatusError struct {
	URL    string
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http status: %d, %s: %s", e.Code, e.Status, e.URL)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrStatusCode
}

// Temporary reports whether repeating the request can succeed. Client errors other than 408 and 429
// will not change on retry
func (e *StatusError) Temporary() bool {
	switch {
	case e.Code == http.StatusRequestTimeout, e.Code == http.StatusTooManyRequests:
		return true
	case e.Code >= 400 && e.Code < 500:
		return false
	default:
		return true
	}
}

// IsRetryable reports whether err is worth another attempt. Only a permanent status error is not
func IsRetryable(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}

	return err != nil
}

type Option func(*SourceHTTPClient)

// WithMaxBodySize limits the decoded body. Non-positive values are ignored
func WithMaxBodySize(n int64) Option {
	return func(c *SourceHTTPClient) {
		if n > 0 {
			c.maxBodySize = n
		}
	}
}

func defaultTransportClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			DisableCompression:    true,
			IdleConnTimeout:       5 * time.Minute,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
			ResponseHeaderTimeout: 10 * time.Second,
		},
	}
}

// NewHTTPClient return prepared SourceHTTPClient, a nil client is replaced with a preconfigured one
func NewHTTPClient(client *http.Client, opts ...Option) SourceHTTPClient {
	if client == nil {
		client = defaultTransportClient()
	}

	c := SourceHTTPClient{client: client, maxBodySize: DefaultMaxBodySize}
	for _, opt := range opts {
		opt(&c)
	}

	return c
}

type SourceHTTPClient struct {
	client      *http.Client
	maxBodySize int64
}

func (f SourceHTTPClient) UserAgent() string {
	return defaultUserAgent
}

// Get fetches u and returns the decompressed body. A non-200 response is reported as *StatusError
func (f SourceHTTPClient) Get(ctx context.Context, u url.URL) ([]byte, error) {
	req, err := f.prepareRequest(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("build HTTP request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("make HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &StatusError{URL: u.Redacted(), Code: resp.StatusCode, Status: resp.Status}
	}

	if resp.ContentLength > f.maxBodySize {
		return nil, fmt.Errorf("content length %d: %w", resp.ContentLength, ErrBodyTooLarge)
	}

	reader := io.Reader(resp.Body)
	if isGzip(resp.Header) {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("unable create gzip.NewReader: %w", err)
		}
		defer gz.Close()

		reader = gz
	}

	// one extra byte tells a body of exactly the limit from a longer one
	b, err := io.ReadAll(io.LimitReader(reader, f.maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if int64(len(b)) > f.maxBodySize {
		return nil, fmt.Errorf("read body: %w", ErrBodyTooLarge)
	}

	return b, nil
}

func isGzip(h http.Header) bool {
	return strings.Contains(h.Get("Content-Type"), "application/x-gzip") ||
		strings.Contains(h.Get("Content-Encoding"), "gzip")
}

func (f SourceHTTPClient) prepareRequest(ctx context.Context, u url.URL) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("http.NewRequestWithContext: %w", err)
	}

	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Accept-Encoding", "gzip")

	return req, nil
}
