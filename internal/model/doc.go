// Package model defines the data structures shared by the imageloader
// packages.
//
// This package contains the following main types:
//   - Page: The fetched target page
//   - ImageReference: An <img> element found in the page
//   - ResolvedImage and ResolvedSet: Images whose URL answered a probe
//   - DownloadOutcome and DownloadSummary: Results of retrieving images
//   - Run and RunRecord: Pipeline state and its persisted summary
//
// Keeping the types here lets the fetcher, extractor, resolver, downloader,
// history and report packages share them without import cycles.
package model
