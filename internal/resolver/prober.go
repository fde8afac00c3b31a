package resolver

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"
)

// Prober decides whether a URL can be downloaded.
type Prober interface {
	Probe(ctx context.Context, url string) bool
}

// Clock sleeps. Tests replace it to avoid real delays.
type Clock interface {
	// Sleep pauses for d or until ctx is done, returning ctx.Err() in that case.
	Sleep(ctx context.Context, d time.Duration) error
}

// Rand is the source of randomness used by Jitter.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

type realClock struct{}

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) } //nolint:gosec // jitter does not need a CSPRNG

// Jitter is the random pause taken before each probe, drawn uniformly with
// millisecond granularity from [Min, Max], both ends included.
type Jitter struct {
	Min   time.Duration
	Max   time.Duration
	Clock Clock
	Rand  Rand
}

// NewJitter returns a Jitter over [minDelay, maxDelay] using the wall clock and
// the global random source.
func NewJitter(minDelay, maxDelay time.Duration) Jitter {
	return Jitter{Min: minDelay, Max: maxDelay, Clock: realClock{}, Rand: globalRand{}}
}

// Next draws the next delay.
func (j Jitter) Next() time.Duration {
	minMs := j.Min.Milliseconds()
	maxMs := j.Max.Milliseconds()
	if maxMs <= minMs {
		return time.Duration(minMs) * time.Millisecond
	}
	r := j.Rand
	if r == nil {
		r = globalRand{}
	}
	return time.Duration(minMs+int64(r.IntN(int(maxMs-minMs+1)))) * time.Millisecond
}

// Wait sleeps for the next delay.
func (j Jitter) Wait(ctx context.Context) (time.Duration, error) {
	d := j.Next()
	c := j.Clock
	if c == nil {
		c = realClock{}
	}
	return d, c.Sleep(ctx, d)
}

// HTTPProber validates a candidate with a GET request after a jitter pause.
// Only status 200 counts as success; every other status, and every
// transport failure, is a rejection.
type HTTPProber struct {
	client *http.Client
	jitter Jitter
	logger *slog.Logger
}

// ProberOption configures an HTTPProber.
type ProberOption func(*HTTPProber)

// WithJitter replaces the default 50ms to 500ms jitter.
func WithJitter(j Jitter) ProberOption {
	return func(p *HTTPProber) {
		p.jitter = j
	}
}

// WithProberLogger sets the logger.
func WithProberLogger(logger *slog.Logger) ProberOption {
	return func(p *HTTPProber) {
		p.logger = logger
	}
}

// NewHTTPProber creates an HTTPProber sending requests with client.
func NewHTTPProber(client *http.Client, opts ...ProberOption) *HTTPProber {
	p := &HTTPProber{
		client: client,
		jitter: NewJitter(50*time.Millisecond, 500*time.Millisecond),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Probe implements Prober.
func (p *HTTPProber) Probe(ctx context.Context, target string) bool {
	delay, err := p.jitter.Wait(ctx)
	if err != nil {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		p.logger.Debug("probe skipped: invalid URL", "url", target, "error", err)
		return false
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Debug("probe failed", "url", target, "delay", delay, "error", err)
		return false
	}
	resp.Body.Close()

	p.logger.Debug("probe answered", "url", target, "delay", delay, "status", resp.StatusCode)
	return resp.StatusCode == http.StatusOK
}
