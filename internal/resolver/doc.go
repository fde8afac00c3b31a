// Package resolver turns the raw src values of a page into absolute URLs
// that actually answer.
//
// Each reference is run through an ordered list of Candidate strategies
// (Direct, SchemeRelative, Combine). Every proposal is checked by a Prober
// that waits a random 50ms to 500ms and then issues a GET; the first
// proposal answered with 200 OK wins. References for which no proposal
// succeeds are reported as unresolved and never downloaded.
package resolver
