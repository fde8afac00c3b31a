package transport

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
)

// acceptEncoding is advertised on requests that do not set Accept-Encoding
// themselves.
const acceptEncoding = "br, gzip"

// decodingTransport asks for brotli or gzip encoded responses and decodes
// them, so callers always read the identity body. net/http stops decoding
// gzip once Accept-Encoding is set by hand, so gzip is handled here too.
type decodingTransport struct {
	base http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (t *decodingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("Accept-Encoding") != "" || req.Header.Get("Range") != "" {
		return t.base.RoundTrip(req)
	}

	clone := req.Clone(req.Context())
	clone.Header.Set("Accept-Encoding", acceptEncoding)

	resp, err := t.base.RoundTrip(clone)
	if err != nil {
		return nil, err
	}
	if req.Method != http.MethodHead && bodyAllowed(resp.StatusCode) {
		decodeBody(resp)
	}
	return resp, nil
}

// bodyAllowed reports whether a response with status may carry a body.
func bodyAllowed(status int) bool {
	return status != http.StatusNoContent && status != http.StatusNotModified && status >= 200
}

// decodeBody replaces resp.Body with a decoder matching Content-Encoding.
// Unknown encodings are left untouched.
func decodeBody(resp *http.Response) {
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "br":
		resp.Body = &decodedBody{r: brotli.NewReader(resp.Body), body: resp.Body}
	case "gzip", "x-gzip":
		resp.Body = &gzipBody{body: resp.Body}
	default:
		return
	}

	resp.Header.Del("Content-Encoding")
	resp.Header.Del("Content-Length")
	resp.ContentLength = -1
	resp.Uncompressed = true
}

// decodedBody reads from r and closes the original body.
type decodedBody struct {
	r    io.Reader
	body io.ReadCloser
}

func (d *decodedBody) Read(p []byte) (int, error) { return d.r.Read(p) }
func (d *decodedBody) Close() error               { return d.body.Close() }

// gzipBody creates its gzip.Reader on the first Read, so an empty body
// reads as io.EOF instead of failing on a missing header.
type gzipBody struct {
	body io.ReadCloser
	zr   *gzip.Reader
	err  error
}

func (g *gzipBody) Read(p []byte) (int, error) {
	if g.zr == nil && g.err == nil {
		g.zr, g.err = gzip.NewReader(g.body)
	}
	if g.err != nil {
		return 0, g.err
	}
	return g.zr.Read(p)
}

func (g *gzipBody) Close() error {
	return g.body.Close()
}
