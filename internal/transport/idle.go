package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"
)

// IdleTimeoutError is returned by a response body that received no data for
// longer than the client timeout. It is a net.Error whose Timeout method
// reports true, and errors.Is matches it against context.DeadlineExceeded.
type IdleTimeoutError struct {
	Idle time.Duration
}

func (e *IdleTimeoutError) Error() string {
	return fmt.Sprintf("no data received for %s while reading response body", e.Idle)
}

// Unwrap returns context.DeadlineExceeded.
func (e *IdleTimeoutError) Unwrap() error { return context.DeadlineExceeded }

// Timeout implements net.Error.
func (e *IdleTimeoutError) Timeout() bool { return true }

// Temporary implements net.Error.
func (e *IdleTimeoutError) Temporary() bool { return true }

// idleTimeoutTransport aborts a response body once no data arrived for
// timeout. Every Read that returns data restarts the clock, so a slow but
// steady body is read to the end.
type idleTimeoutTransport struct {
	base    http.RoundTripper
	timeout time.Duration
}

// RoundTrip implements http.RoundTripper.
func (t *idleTimeoutTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx, cancel := context.WithCancel(req.Context())
	resp, err := t.base.RoundTrip(req.WithContext(ctx))
	if err != nil {
		cancel()
		return nil, err
	}
	resp.Body = newIdleBody(resp.Body, t.timeout, cancel)
	return resp, nil
}

// idleBody cancels the request context when the clock runs out, which makes
// a blocked Read on the underlying body return.
type idleBody struct {
	body    io.ReadCloser
	timeout time.Duration
	cancel  context.CancelFunc
	timer   *time.Timer
	expired atomic.Bool
}

func newIdleBody(body io.ReadCloser, timeout time.Duration, cancel context.CancelFunc) *idleBody {
	b := &idleBody{body: body, timeout: timeout, cancel: cancel}
	b.timer = time.AfterFunc(timeout, func() {
		b.expired.Store(true)
		b.cancel()
	})
	return b
}

func (b *idleBody) Read(p []byte) (int, error) {
	n, err := b.body.Read(p)
	switch {
	case err == io.EOF:
		b.timer.Stop()
	case err != nil && b.expired.Load():
		return n, &IdleTimeoutError{Idle: b.timeout}
	case n > 0:
		b.timer.Reset(b.timeout)
	}
	return n, err
}

func (b *idleBody) Close() error {
	b.timer.Stop()
	err := b.body.Close()
	b.cancel()
	return err
}
