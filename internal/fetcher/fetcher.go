package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/nao1215/imageloader/internal/model"
)

// StatusTransportFailure is the status code returned by Fetch when no HTTP
// exchange completed (DNS failure, refused connection, timeout, body read
// failure). Real HTTP status codes are always positive.
const StatusTransportFailure = -1

// defaultMaxBodySize is used when WithMaxBodySize is not given.
const defaultMaxBodySize = 5 * 1024 * 1024

var (
	// ErrTransport wraps the error of a request that never completed.
	ErrTransport = errors.New("transport failure")

	// ErrStatus is returned by CheckStatus for any status other than 200.
	ErrStatus = errors.New("unexpected HTTP status")
)

// Response is the result of Fetch.
// On a completed exchange Page is set and Err is nil. On a transport
// failure Page is nil and Err wraps ErrTransport.
type Response struct {
	Page *model.Page
	Err  error
}

// Fetcher retrieves the target page with a single GET.
// It never retries and never caches.
type Fetcher struct {
	client      *http.Client
	maxBodySize int64
	logger      *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithMaxBodySize limits how many body bytes are read.
func WithMaxBodySize(size int64) Option {
	return func(f *Fetcher) {
		f.maxBodySize = size
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// New creates a Fetcher that sends its request with client.
// Timeouts, proxying and default headers are the client's concern.
func New(client *http.Client, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:      client,
		maxBodySize: defaultMaxBodySize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch performs one GET for pageURL.
//
// Any completed exchange, including 4xx and 5xx, returns the page and its
// status code. A failure before a status was received, or while reading the
// body, returns (Response{Err: ...}, StatusTransportFailure).
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (*Response, int) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return transportFailure(fmt.Errorf("invalid request for %s: %w", pageURL, err))
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	f.logger.Debug("fetching page", "url", pageURL)

	resp, err := f.client.Do(req)
	if err != nil {
		return transportFailure(err)
	}
	defer resp.Body.Close()

	// One byte past the limit tells a page of exactly maxBodySize bytes
	// from a longer one.
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize+1))
	if err != nil {
		return transportFailure(fmt.Errorf("failed to read body of %s: %w", pageURL, err))
	}
	truncated := int64(len(body)) > f.maxBodySize
	if truncated {
		body = body[:f.maxBodySize]
		f.logger.Warn("page body exceeds the size limit, images after the cut are ignored",
			"url", pageURL,
			"limit", f.maxBodySize,
		)
	}

	page := &model.Page{
		URL:         pageURL,
		StatusCode:  resp.StatusCode,
		Headers:     resp.Header,
		ContentType: resp.Header.Get("Content-Type"),
		Raw:         body,
		Truncated:   truncated,
	}
	page.ComputeHash()

	f.logger.Debug("page fetched",
		"url", pageURL,
		"status", resp.StatusCode,
		"bytes", len(body),
		"content_type", page.ContentType,
	)

	return &Response{Page: page}, resp.StatusCode
}

func transportFailure(err error) (*Response, int) {
	return &Response{Err: fmt.Errorf("%w: %w", ErrTransport, err)}, StatusTransportFailure
}

// CheckStatus turns the result of Fetch into an error for callers that treat
// anything but 200 as fatal. It returns nil only for status 200.
func CheckStatus(resp *Response, status int) error {
	if status == StatusTransportFailure {
		if resp != nil && resp.Err != nil {
			return resp.Err
		}
		return ErrTransport
	}
	if status != http.StatusOK {
		return fmt.Errorf("%w: %d", ErrStatus, status)
	}
	return nil
}
