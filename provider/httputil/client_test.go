package httputil

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestHTTPClient_UserAgent(t *testing.T) {
	t.Parallel()
	client := NewHTTPClient(http.DefaultClient)

	if client.UserAgent() != "fxcache/0.1.0" {
		t.Errorf("user agent wrong")
	}
}

func TestHTTPClient_Get(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		handler  http.HandlerFunc
		expected []byte
		err      error
	}{
		{
			name: "plain_body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("User-Agent") != defaultUserAgent {
					w.WriteHeader(http.StatusBadRequest)
					return
				}
				_, _ = w.Write([]byte("<Cube/>"))
			},
			expected: []byte("<Cube/>"),
		},
		{
			name: "gzip_body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				var buf bytes.Buffer
				gz := gzip.NewWriter(&buf)
				_, _ = gz.Write([]byte("<Cube/>"))
				_ = gz.Close()

				w.Header().Set("Content-Encoding", "gzip")
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write(buf.Bytes())
			},
			expected: []byte("<Cube/>"),
		},
		{
			name: "status_not_ok",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			},
			err: ErrStatusCode,
		},
		{
			name: "body_too_large",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write(bytes.Repeat([]byte("x"), 2048))
			},
			err: ErrBodyTooLarge,
		},
		{
			name: "gzip_body_too_large",
			handler: func(w http.ResponseWriter, r *http.Request) {
				var buf bytes.Buffer
				gz := gzip.NewWriter(&buf)
				_, _ = gz.Write(bytes.Repeat([]byte("x"), 2048))
				_ = gz.Close()

				w.Header().Set("Content-Encoding", "gzip")
				_, _ = w.Write(buf.Bytes())
			},
			err: ErrBodyTooLarge,
		},
		{
			name: "body_at_limit",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write(bytes.Repeat([]byte("x"), 1024))
			},
			expected: bytes.Repeat([]byte("x"), 1024),
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			u, err := url.Parse(srv.URL)
			if err != nil {
				t.Fatalf("url parse: %v", err)
			}

			b, err := NewHTTPClient(srv.Client(), WithMaxBodySize(1024)).Get(context.Background(), *u)
			if tc.err != nil {
				if !errors.Is(err, tc.err) {
					t.Fatalf("expected %v, got %v", tc.err, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("get: %v", err)
			}

			if diff := cmp.Diff(tc.expected, b); diff != "" {
				t.Errorf("mismatch (-want, +got):\n%s", diff)
			}
		})
	}
}

func TestStatusError(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		code      int
		retryable bool
	}{
		{name: "not_found", code: http.StatusNotFound},
		{name: "forbidden", code: http.StatusForbidden},
		{name: "request_timeout", code: http.StatusRequestTimeout, retryable: true},
		{name: "too_many_requests", code: http.StatusTooManyRequests, retryable: true},
		{name: "bad_gateway", code: http.StatusBadGateway, retryable: true},
		{name: "unavailable", code: http.StatusServiceUnavailable, retryable: true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := fmt.Errorf("get: %w", &StatusError{Code: tc.code, Status: http.StatusText(tc.code)})
			if !errors.Is(err, ErrStatusCode) {
				t.Errorf("expected ErrStatusCode in %v", err)
			}

			if diff := cmp.Diff(tc.retryable, IsRetryable(err)); diff != "" {
				t.Errorf("mismatch (-want, +got):\n%s", diff)
			}
		})
	}

	if !IsRetryable(errors.New("connection reset")) {
		t.Errorf("transport error must be retryable")
	}
}
