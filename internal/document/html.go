package document

import (
	"fmt"
	"io"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// htmlDocument walks the golang.org/x/net/html node tree directly.
type htmlDocument struct {
	root *html.Node
}

func parseHTML(r io.Reader) (Document, error) {
	root, err := html.Parse(readerOrEmpty(r))
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return &htmlDocument{root: root}, nil
}

// FindAllImageElements implements Document.
func (d *htmlDocument) FindAllImageElements() []Element {
	var elements []Element

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Img {
			elements = append(elements, NewElement(n.Data, attrMap(n)))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(d.root)

	return elements
}

// Attribute implements Document.
func (d *htmlDocument) Attribute(el Element, key string) string {
	return attribute(el, key)
}

// attrMap collects the attributes of n, keeping the first of any duplicates.
func attrMap(n *html.Node) map[string]string {
	attrs := make(map[string]string, len(n.Attr))
	for _, a := range n.Attr {
		if a.Namespace != "" {
			continue
		}
		if _, seen := attrs[a.Key]; !seen {
			attrs[a.Key] = a.Val
		}
	}
	return attrs
}
