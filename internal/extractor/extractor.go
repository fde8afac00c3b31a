package extractor

import (
	"github.com/nao1215/imageloader/internal/document"
	"github.com/nao1215/imageloader/internal/model"
)

// Extract returns one ImageReference per <img> element of doc, in document
// order. Elements whose src attribute is absent or empty are skipped; any
// other value, whitespace included, is kept exactly as written.
func Extract(doc document.Document) []model.ImageReference {
	elements := doc.FindAllImageElements()
	refs := make([]model.ImageReference, 0, len(elements))

	for _, el := range elements {
		src := doc.Attribute(el, "src")
		if src == "" {
			continue
		}
		refs = append(refs, model.NewImageReference(
			src,
			doc.Attribute(el, "alt"),
			doc.Attribute(el, "title"),
		))
	}

	return refs
}
