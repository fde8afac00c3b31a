// Package fetcher retrieves the single target page of a run.
//
// Fetch distinguishes a completed HTTP exchange, whatever its status, from a
// transport failure. The latter is reported through the sentinel status
// StatusTransportFailure so callers can decide with one integer comparison.
package fetcher
