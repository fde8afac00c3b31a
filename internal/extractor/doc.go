// Package extractor turns a parsed page into the list of image references
// the resolver works on.
package extractor
