package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Page represents the fetched target page.
// It holds the raw response data that the document parser consumes.
type Page struct {
	// URL is the URL that was requested.
	URL string `json:"url"`

	// StatusCode is the HTTP response status code.
	StatusCode int `json:"status_code"`

	// Headers contains all HTTP response headers.
	// Keys are canonicalized header names.
	Headers map[string][]string `json:"headers"`

	// ContentType is the MIME type of the response, including any charset
	// parameter. It is used to pick the character decoder.
	ContentType string `json:"content_type"`

	// Raw contains the response body bytes, limited to the configured
	// maximum body size.
	Raw []byte `json:"-"`

	// Truncated is true when the body was longer than the maximum body size
	// and Raw holds only its beginning.
	Truncated bool `json:"truncated,omitempty"`

	// Hash is the SHA-256 hash of the raw content.
	Hash string `json:"hash"`
}

// ComputeHash calculates and sets the SHA-256 hash of the page's raw content.
// This should be called after setting the Raw field.
func (p *Page) ComputeHash() {
	if len(p.Raw) == 0 {
		p.Hash = ""
		return
	}

	hash := sha256.Sum256(p.Raw)
	p.Hash = hex.EncodeToString(hash[:])
}

// GetHeader returns the first value of the specified header.
// Returns empty string if the header is not present.
func (p *Page) GetHeader(name string) string {
	if values, ok := p.Headers[name]; ok && len(values) > 0 {
		return values[0]
	}
	return ""
}

// IsHTML returns true if the page content type indicates HTML.
// An empty content type is treated as HTML because many servers omit it.
func (p *Page) IsHTML() bool {
	ct := strings.ToLower(strings.TrimSpace(p.ContentType))
	return ct == "" ||
		strings.HasPrefix(ct, "text/html") ||
		strings.HasPrefix(ct, "application/xhtml+xml")
}
