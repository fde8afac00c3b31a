// Package transport builds the single HTTP client used for every network
// call of a run: fetching the page, probing image candidates and
// downloading images.
//
// The client fails a request once it stalls for longer than the timeout
// (connecting, TLS, waiting for headers or between body reads), sends the configured
// User-Agent and extra headers, and can route all connections through a
// SOCKS5 proxy (for example a local Tor daemon at 127.0.0.1:9050).
// Brotli and gzip encoded responses are decoded transparently, and an
// optional per-host interval spaces out requests to the same server.
package transport
