package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// chunkServer writes chunks of "x", flushing each one and pausing gap in
// between. With stallAfter > 0 it stops after that many chunks and waits
// for the client to go away.
func chunkServer(t *testing.T, chunks int, gap time.Duration, stallAfter int) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "no flusher", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		for i := range chunks {
			if stallAfter > 0 && i == stallAfter {
				<-r.Context().Done()
				return
			}
			_, _ = w.Write([]byte("x"))
			flusher.Flush()
			select {
			case <-time.After(gap):
			case <-r.Context().Done():
				return
			}
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestIdleTimeout(t *testing.T) {
	t.Parallel()

	t.Run("slow body that keeps delivering data is read to the end", func(t *testing.T) {
		t.Parallel()

		// 8 chunks 100ms apart take well over the 300ms timeout in total.
		server := chunkServer(t, 8, 100*time.Millisecond, 0)
		client, err := New(WithTimeout(300 * time.Millisecond))
		if err != nil {
			t.Fatal(err)
		}

		_, body := get(t, client, server.URL, nil)
		if body != strings.Repeat("x", 8) {
			t.Errorf("expected 8 chunks, got %q", body)
		}
	})

	t.Run("body that stops delivering data times out", func(t *testing.T) {
		t.Parallel()

		server := chunkServer(t, 8, 10*time.Millisecond, 2)
		client, err := New(WithTimeout(200 * time.Millisecond))
		if err != nil {
			t.Fatal(err)
		}

		req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL, nil)
		if err != nil {
			t.Fatal(err)
		}
		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("headers should arrive: %v", err)
		}
		defer resp.Body.Close()

		start := time.Now()
		data, err := io.ReadAll(resp.Body)
		if err == nil {
			t.Fatalf("expected a read error, got body %q", data)
		}
		if string(data) != "xx" {
			t.Errorf("expected the two chunks sent before the stall, got %q", data)
		}
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected DeadlineExceeded, got %v", err)
		}
		var netErr net.Error
		if !errors.As(err, &netErr) || !netErr.Timeout() {
			t.Errorf("expected a net.Error timeout, got %v", err)
		}
		if elapsed := time.Since(start); elapsed > 5*time.Second {
			t.Errorf("stalled body took too long to fail: %v", elapsed)
		}
	})

	t.Run("zero timeout adds no idle clock", func(t *testing.T) {
		t.Parallel()

		client, err := New()
		if err != nil {
			t.Fatal(err)
		}
		decoding, ok := client.Transport.(*decodingTransport)
		if !ok {
			t.Fatalf("unexpected transport %T", client.Transport)
		}
		if _, ok := decoding.base.(*http.Transport); !ok {
			t.Errorf("expected the base transport directly, got %T", decoding.base)
		}
	})
}
