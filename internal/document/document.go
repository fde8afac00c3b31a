package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"golang.org/x/net/html/charset"
)

// Backend names accepted by Parse.
const (
	BackendGoquery = "goquery"
	BackendHTML    = "html"
)

// ErrUnknownBackend is returned by Parse for a backend name it does not know.
var ErrUnknownBackend = errors.New("unknown document backend")

// Element is one element of a parsed document: its lower-case tag name and
// its attributes. When an attribute is repeated the first value is kept.
type Element struct {
	Name  string
	attrs map[string]string
}

// NewElement creates an Element from a tag name and attributes.
func NewElement(name string, attrs map[string]string) Element {
	if attrs == nil {
		attrs = map[string]string{}
	}
	return Element{Name: name, attrs: attrs}
}

// Document is a parsed page.
type Document interface {
	// FindAllImageElements returns every <img> element in document order.
	FindAllImageElements() []Element

	// Attribute returns the value of attribute key on el, or "" when the
	// attribute is absent. It never fails.
	Attribute(el Element, key string) string
}

// Lookup returns m[key], or "" when key is absent or m is nil.
func Lookup(m map[string]string, key string) string {
	if m == nil {
		return ""
	}
	return m[key]
}

// Parse decodes body to UTF-8 using the charset of contentType (or the one
// declared in the document) and parses it with the named backend.
func Parse(body []byte, contentType, backend string) (Document, error) {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		// An undecodable charset label still leaves the bytes parseable.
		r = bytes.NewReader(body)
	}

	switch backend {
	case BackendGoquery, "":
		return parseGoquery(r)
	case BackendHTML:
		return parseHTML(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

// attribute is the Attribute implementation shared by both backends.
func attribute(el Element, key string) string {
	return Lookup(el.attrs, key)
}

// readerOrEmpty guards against a nil reader.
func readerOrEmpty(r io.Reader) io.Reader {
	if r == nil {
		return bytes.NewReader(nil)
	}
	return r
}
