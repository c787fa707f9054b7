package ecb

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/robotomize/fxcache/provider"
	"github.com/robotomize/fxcache/provider/httputil"
	"github.com/robotomize/fxcache/snapshot"
	"github.com/sethvargo/go-retry"
)

const DefaultBaseURL = "https://www.ecb.europa.eu"

const (
	dailyXMLRawPath   = "/stats/eurofxref/eurofxref-daily.xml"
	historyXMLRawPath = "/stats/eurofxref/eurofxref-hist.xml"
	last90XMLRawPath  = "/stats/eurofxref/eurofxref-hist-90d.xml"
)

const (
	defaultRetryNum       = 3
	defaultRetryDuration  = 5 * time.Second
	defaultRequestTimeout = 30 * time.Second
)

var _ provider.Source = (*Source)(nil)

type Option func(*Source)

// WithBaseURL replaces scheme and host of the feed URLs
func WithBaseURL(raw string) Option {
	return func(s *Source) {
		s.baseURL = strings.TrimRight(raw, "/")
	}
}

// WithRetryNum set how many times a failed fetch is repeated
func WithRetryNum(n uint64) Option {
	return func(s *Source) {
		s.retryNum = n
	}
}

// WithRetryDuration set the pause between attempts. Non-positive values are ignored
func WithRetryDuration(d time.Duration) Option {
	return func(s *Source) {
		if d > 0 {
			s.retryDuration = d
		}
	}
}

// WithRequestTimeout bounds a single attempt including reading the body
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Source) {
		if d > 0 {
			s.requestTimeout = d
		}
	}
}

// WithMaxBodySize limits the size of a decoded feed
func WithMaxBodySize(n int64) Option {
	return func(s *Source) {
		s.maxBodySize = n
	}
}

// NewSource returns the ECB supplier. A nil client is replaced with a preconfigured one
func NewSource(client *http.Client, opts ...Option) *Source {
	s := &Source{
		decodeFunc:     decodeXML(),
		maxBodySize:    httputil.DefaultMaxBodySize,
		baseURL:        DefaultBaseURL,
		retryNum:       defaultRetryNum,
		retryDuration:  defaultRetryDuration,
		requestTimeout: defaultRequestTimeout,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.client = httputil.NewHTTPClient(client, httputil.WithMaxBodySize(s.maxBodySize))

	return s
}

type Source struct {
	client     httputil.SourceHTTPClient
	decodeFunc decodeFunc

	baseURL        string
	maxBodySize    int64
	retryNum       uint64
	retryDuration  time.Duration
	requestTimeout time.Duration
}

// FetchHistory downloads every day published since 1999-01-04
func (s *Source) FetchHistory(ctx context.Context) ([]snapshot.Snapshot, error) {
	list, err := s.fetch(ctx, historyXMLRawPath)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}

	return list, nil
}

// FetchLast90 downloads the last 90 days
func (s *Source) FetchLast90(ctx context.Context) ([]snapshot.Snapshot, error) {
	list, err := s.fetch(ctx, last90XMLRawPath)
	if err != nil {
		return nil, fmt.Errorf("fetch last 90 days: %w", err)
	}

	return list, nil
}

// FetchDaily downloads the latest reference rates
func (s *Source) FetchDaily(ctx context.Context) (snapshot.Snapshot, error) {
	list, err := s.fetch(ctx, dailyXMLRawPath)
	if err != nil {
		return snapshot.Snapshot{}, fmt.Errorf("fetch daily: %w", err)
	}

	if len(list) == 0 {
		return snapshot.Snapshot{}, ErrEmptyFeed
	}

	return list[len(list)-1], nil
}

func (s *Source) resource(rawPath string) (url.URL, error) {
	u, err := url.Parse(s.baseURL + rawPath)
	if err != nil {
		return url.URL{}, fmt.Errorf("url parse: %w", err)
	}

	return *u, nil
}

// fetch downloads and decodes one feed. Transport errors and temporary statuses are retried, a client
// error status or a feed that does not decode is not
func (s *Source) fetch(ctx context.Context, rawPath string) ([]snapshot.Snapshot, error) {
	u, err := s.resource(rawPath)
	if err != nil {
		return nil, err
	}

	b, _ := retry.NewConstant(s.retryDuration)

	b = retry.WithMaxRetries(s.retryNum, b)

	var body []byte
	if err := retry.Do(ctx, b, func(ctx context.Context) error {
		reqCtx, cancel := context.WithTimeout(ctx, s.requestTimeout)
		defer cancel()

		raw, err := s.client.Get(reqCtx, u)
		if err != nil {
			err = fmt.Errorf("get %s: %w", u.Path, err)
			if httputil.IsRetryable(err) {
				return retry.RetryableError(err)
			}

			return err
		}

		body = raw

		return nil
	}); err != nil {
		return nil, err
	}

	list, err := s.decode(body)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	return list, nil
}

func (s *Source) decode(b []byte) ([]snapshot.Snapshot, error) {
	list := make([]snapshot.Snapshot, 0)

	if err := s.decodeFunc(b, func(day snapshot.Snapshot) error {
		list = append(list, day)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("%T decode func: %w", s.decodeFunc, err)
	}

	return snapshot.SortByDate(list), nil
}
