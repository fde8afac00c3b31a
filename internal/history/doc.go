// Package history records every run in a SQLite database (modernc.org/sqlite,
// no cgo) stored in the XDG data directory.
//
// Each run keeps its page URL, destination, timing and counters, plus one row
// per image reference with the resolved URL, the download outcome, the
// BLAKE2b digest and any EXIF metadata. The `imageloader history` command
// reads it back.
package history
