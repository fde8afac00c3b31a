// Package downloader retrieves resolved images into the destination
// directory and writes filelist.txt, the manifest of the URLs that were
// saved.
//
// Images are processed one at a time in the order they were found. A failed
// image (network error, timeout, non-200 status, local file error) is logged
// and skipped; it never stops the run. Each file is written to a temporary
// name and renamed into place once complete, so a failed download never
// leaves a partial image behind.
package downloader
