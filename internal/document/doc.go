// Package document parses a fetched page into a tree of tags and exposes the
// <img> elements it contains.
//
// Two backends implement Document: "goquery" (the default) and "html", a
// plain walk over the golang.org/x/net/html tree. Both see the body after it
// has been decoded to UTF-8 with golang.org/x/net/html/charset, so pages
// served as Shift_JIS or ISO-8859-1 yield correct attribute text.
package document
