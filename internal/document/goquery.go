package document

import (
	"fmt"
	"io"

	"github.com/PuerkitoBio/goquery"
)

// goqueryDocument is the default backend.
type goqueryDocument struct {
	doc *goquery.Document
}

func parseGoquery(r io.Reader) (Document, error) {
	doc, err := goquery.NewDocumentFromReader(readerOrEmpty(r))
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return &goqueryDocument{doc: doc}, nil
}

// FindAllImageElements implements Document.
func (d *goqueryDocument) FindAllImageElements() []Element {
	var elements []Element
	d.doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		attrs := make(map[string]string)
		for _, n := range s.Nodes {
			for _, a := range n.Attr {
				if _, seen := attrs[a.Key]; !seen {
					attrs[a.Key] = a.Val
				}
			}
		}
		elements = append(elements, NewElement("img", attrs))
	})
	return elements
}

// Attribute implements Document.
func (d *goqueryDocument) Attribute(el Element, key string) string {
	return attribute(el, key)
}
