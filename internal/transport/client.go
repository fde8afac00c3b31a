package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/net/proxy"
)

// maxRedirects is the number of redirects followed before the last response
// is returned as-is.
const maxRedirects = 10

// checkProxyTimeout bounds the SOCKS5 handshake performed by CheckProxy.
const checkProxyTimeout = 2 * time.Second

// Errors returned while building a client or checking the proxy.
var (
	// ErrInvalidProxyAddress is returned when the proxy address is not "host:port".
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")

	// ErrProxyCannotConnect is returned when no TCP connection to the proxy
	// could be established.
	ErrProxyCannotConnect = errors.New("cannot connect to SOCKS5 proxy")

	// ErrProxyNotSOCKS5 is returned when the proxy answers but does not speak
	// SOCKS5 without authentication.
	ErrProxyNotSOCKS5 = errors.New("proxy does not speak SOCKS5")
)

// options holds the settings applied by Option values.
type options struct {
	timeout    time.Duration
	userAgent  string
	headers    map[string]string
	socksProxy string
	interval   time.Duration
}

// Option configures the HTTP client built by New.
type Option func(*options)

// WithTimeout bounds every stall of a request: connecting, the TLS
// handshake, waiting for response headers and each gap between body reads.
// A body that keeps delivering data is never cut off. Zero disables the
// bounds.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithUserAgent sets the User-Agent header. An empty string keeps Go's default.
func WithUserAgent(ua string) Option {
	return func(o *options) {
		o.userAgent = ua
	}
}

// WithHeaders adds headers to every request.
func WithHeaders(headers map[string]string) Option {
	return func(o *options) {
		o.headers = headers
	}
}

// WithSocksProxy routes every connection through the SOCKS5 proxy at addr
// ("host:port"). An empty addr means direct connections.
func WithSocksProxy(addr string) Option {
	return func(o *options) {
		o.socksProxy = addr
	}
}

// WithRequestInterval limits requests to one per d for each host.
// Zero or a negative d disables pacing.
func WithRequestInterval(d time.Duration) Option {
	return func(o *options) {
		o.interval = d
	}
}

// New builds the *http.Client shared by the page fetcher, the candidate
// prober and the downloader. Every request made with it carries the
// configured headers, fails once it stalls for longer than the configured
// timeout and has its brotli or gzip body decoded.
func New(opts ...Option) (*http.Client, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	base := http.DefaultTransport.(*http.Transport).Clone() //nolint:forcetypeassert // DefaultTransport is always *http.Transport
	base.MaxIdleConns = 10
	base.MaxIdleConnsPerHost = 2
	base.IdleConnTimeout = 30 * time.Second

	dialer := &net.Dialer{Timeout: o.timeout, KeepAlive: 30 * time.Second}
	base.DialContext = dialer.DialContext
	base.TLSHandshakeTimeout = o.timeout
	base.ResponseHeaderTimeout = o.timeout

	if o.socksProxy != "" {
		if !isValidProxyAddress(o.socksProxy) {
			return nil, ErrInvalidProxyAddress
		}
		socks, err := proxy.SOCKS5("tcp", o.socksProxy, nil, dialer)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		base.Proxy = nil
		base.DialContext = dialContext(socks)
	}

	var rt http.RoundTripper = base
	if o.timeout > 0 {
		rt = &idleTimeoutTransport{base: rt, timeout: o.timeout}
	}
	if o.interval > 0 {
		rt = newHostLimiter(rt, o.interval)
	}
	rt = &decodingTransport{base: rt}
	if o.userAgent != "" || len(o.headers) > 0 {
		rt = &headerInjectingTransport{
			base:      rt,
			userAgent: o.userAgent,
			headers:   o.headers,
		}
	}

	return &http.Client{
		Transport: rt,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}, nil
}

// dialContext adapts a proxy.Dialer to http.Transport.DialContext.
// The SOCKS5 dialer from x/net implements proxy.ContextDialer; the goroutine
// fallback is only used for dialers that do not.
func dialContext(d proxy.Dialer) func(ctx context.Context, network, addr string) (net.Conn, error) {
	if cd, ok := d.(proxy.ContextDialer); ok {
		return cd.DialContext
	}
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		type result struct {
			conn net.Conn
			err  error
		}
		ch := make(chan result, 1)
		go func() {
			conn, err := d.Dial(network, addr)
			ch <- result{conn, err}
		}()
		select {
		case r := <-ch:
			return r.conn, r.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// isValidProxyAddress reports whether address is "host:port" with a port in 1..65535.
func isValidProxyAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return false
	}
	return n >= 1 && n <= 65535
}

// CheckProxy performs a SOCKS5 version negotiation with the proxy at addr
// and reports whether it accepts unauthenticated connections.
func CheckProxy(ctx context.Context, addr string) error {
	if !isValidProxyAddress(addr) {
		return ErrInvalidProxyAddress
	}

	ctx, cancel := context.WithTimeout(ctx, checkProxyTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrProxyCannotConnect, err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(checkProxyTimeout)); err != nil {
		return fmt.Errorf("%w: %w", ErrProxyCannotConnect, err)
	}

	// version 5, one method offered, "no authentication"
	if _, err := conn.Write([]byte{0x05, 0x01, 0x00}); err != nil {
		return fmt.Errorf("%w: %w", ErrProxyCannotConnect, err)
	}

	resp := make([]byte, 2)
	if _, err := io.ReadFull(conn, resp); err != nil {
		return fmt.Errorf("%w: %w", ErrProxyNotSOCKS5, err)
	}
	if resp[0] != 0x05 || resp[1] != 0x00 {
		return ErrProxyNotSOCKS5
	}
	return nil
}

// headerInjectingTransport sets the User-Agent and the configured headers
// on every request, redirects included.
type headerInjectingTransport struct {
	base      http.RoundTripper
	userAgent string
	headers   map[string]string
}

// RoundTrip implements http.RoundTripper.
func (t *headerInjectingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())

	if t.userAgent != "" && clone.Header.Get("User-Agent") == "" {
		clone.Header.Set("User-Agent", t.userAgent)
	}
	for key, value := range t.headers {
		clone.Header.Set(key, value)
	}

	return t.base.RoundTrip(clone)
}
