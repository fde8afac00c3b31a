package model

import "strings"

// ImageReference is a single image found in the page.
// It is created by the extractor and never modified afterwards.
type ImageReference struct {
	// Source is the raw src attribute exactly as it appears in the page.
	// It is never empty.
	Source string `json:"source"`

	// Alt is the alt attribute, or empty when absent.
	Alt string `json:"alt,omitempty"`

	// Title is the title attribute, or empty when absent.
	Title string `json:"title,omitempty"`

	// Filename is the final path segment of Source.
	// It is the key used by ResolvedSet and the name of the file on disk.
	Filename string `json:"filename"`
}

// NewImageReference builds an ImageReference and derives its filename.
func NewImageReference(source, alt, title string) ImageReference {
	return ImageReference{
		Source:   source,
		Alt:      alt,
		Title:    title,
		Filename: FilenameFromSource(source),
	}
}

// FilenameFromSource returns everything after the last "/" in source,
// or the whole string when it contains no slash.
func FilenameFromSource(source string) string {
	if i := strings.LastIndex(source, "/"); i >= 0 {
		return source[i+1:]
	}
	return source
}

// ResolvedImage is an ImageReference whose URL was validated by a probe.
type ResolvedImage struct {
	ImageReference

	// URL is the absolute URL that answered the probe with 200 OK.
	URL string `json:"url"`
}

// ResolvedSet is an ordered collection of resolved images keyed by filename.
//
// Adding an image whose filename is already present replaces the stored value
// but keeps the original position, so iteration follows the order in which
// filenames were first encountered.
type ResolvedSet struct {
	order []string
	items map[string]ResolvedImage
}

// NewResolvedSet creates an empty ResolvedSet.
func NewResolvedSet() *ResolvedSet {
	return &ResolvedSet{
		order: make([]string, 0),
		items: make(map[string]ResolvedImage),
	}
}

// Put stores img under its filename. It reports whether an earlier image
// with the same filename was replaced.
func (s *ResolvedSet) Put(img ResolvedImage) bool {
	_, exists := s.items[img.Filename]
	if !exists {
		s.order = append(s.order, img.Filename)
	}
	s.items[img.Filename] = img
	return exists
}

// Get returns the image stored under filename.
func (s *ResolvedSet) Get(filename string) (ResolvedImage, bool) {
	img, ok := s.items[filename]
	return img, ok
}

// Len returns the number of distinct filenames in the set.
func (s *ResolvedSet) Len() int {
	return len(s.order)
}

// Images returns the stored images in encounter order.
func (s *ResolvedSet) Images() []ResolvedImage {
	images := make([]ResolvedImage, 0, len(s.order))
	for _, name := range s.order {
		images = append(images, s.items[name])
	}
	return images
}
