package resolver

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// fakeClock records requested sleeps without sleeping.
type fakeClock struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	c.sleeps = append(c.sleeps, d)
	c.mu.Unlock()
	return ctx.Err()
}

// fixedRand always returns v, clamped to n-1.
type fixedRand struct{ v int }

func (r fixedRand) IntN(n int) int {
	if r.v >= n {
		return n - 1
	}
	return r.v
}

func TestJitterBounds(t *testing.T) {
	t.Parallel()

	t.Run("lowest draw is min", func(t *testing.T) {
		t.Parallel()
		j := Jitter{Min: 50 * time.Millisecond, Max: 500 * time.Millisecond, Rand: fixedRand{v: 0}}
		if got := j.Next(); got != 50*time.Millisecond {
			t.Errorf("expected 50ms, got %v", got)
		}
	})

	t.Run("highest draw is max inclusive", func(t *testing.T) {
		t.Parallel()
		j := Jitter{Min: 50 * time.Millisecond, Max: 500 * time.Millisecond, Rand: fixedRand{v: 1 << 20}}
		if got := j.Next(); got != 500*time.Millisecond {
			t.Errorf("expected 500ms, got %v", got)
		}
	})

	t.Run("random draws stay within bounds", func(t *testing.T) {
		t.Parallel()
		j := NewJitter(50*time.Millisecond, 500*time.Millisecond)
		for range 1000 {
			d := j.Next()
			if d < 50*time.Millisecond || d > 500*time.Millisecond {
				t.Fatalf("delay %v out of bounds", d)
			}
			if d%time.Millisecond != 0 {
				t.Fatalf("delay %v is not whole milliseconds", d)
			}
		}
	})

	t.Run("equal bounds give a fixed delay", func(t *testing.T) {
		t.Parallel()
		j := Jitter{Min: 0, Max: 0}
		if got := j.Next(); got != 0 {
			t.Errorf("expected 0, got %v", got)
		}
	})
}

func TestHTTPProber(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.png", "//double.png":
			w.WriteHeader(http.StatusOK)
		case "/created.png":
			w.WriteHeader(http.StatusCreated)
		case "/redirect.png":
			http.Redirect(w, r, "/ok.png", http.StatusFound)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	tests := []struct {
		path string
		want bool
	}{
		{"/ok.png", true},
		{"//double.png", true},
		{"/created.png", false},
		{"/missing.png", false},
		{"/redirect.png", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			clock := &fakeClock{}
			p := NewHTTPProber(server.Client(), WithJitter(Jitter{
				Min: 50 * time.Millisecond, Max: 500 * time.Millisecond,
				Clock: clock, Rand: fixedRand{v: 100},
			}))

			if got := p.Probe(context.Background(), server.URL+tt.path); got != tt.want {
				t.Errorf("Probe(%s) = %v, want %v", tt.path, got, tt.want)
			}
			if len(clock.sleeps) != 1 || clock.sleeps[0] != 150*time.Millisecond {
				t.Errorf("expected one 150ms jitter sleep, got %v", clock.sleeps)
			}
		})
	}
}

func TestHTTPProberFailures(t *testing.T) {
	t.Parallel()

	noJitter := WithJitter(Jitter{Clock: &fakeClock{}})

	t.Run("connection refused", func(t *testing.T) {
		t.Parallel()
		listener, err := net.Listen("tcp", "127.0.0.1:0") //nolint:noctx // test code
		if err != nil {
			t.Fatal(err)
		}
		addr := listener.Addr().String()
		listener.Close()

		if NewHTTPProber(http.DefaultClient, noJitter).Probe(context.Background(), "http://"+addr+"/a.png") {
			t.Error("expected probe to fail")
		}
	})

	t.Run("invalid URL", func(t *testing.T) {
		t.Parallel()
		if NewHTTPProber(http.DefaultClient, noJitter).Probe(context.Background(), "http://[::1") {
			t.Error("expected probe to fail")
		}
	})

	t.Run("cancelled context skips request", func(t *testing.T) {
		t.Parallel()
		var hits int
		var mu sync.Mutex
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			mu.Lock()
			hits++
			mu.Unlock()
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if NewHTTPProber(server.Client(), noJitter).Probe(ctx, server.URL+"/a.png") {
			t.Error("expected probe to fail")
		}
		mu.Lock()
		defer mu.Unlock()
		if hits != 0 {
			t.Errorf("expected no request, got %d", hits)
		}
	})
}
