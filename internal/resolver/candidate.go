package resolver

import (
	"net/url"
	"strings"
)

// Candidate proposes an absolute URL for an image source.
// Candidates are tried in order; the first proposal that passes the probe wins.
type Candidate interface {
	// Name identifies the strategy in logs and reports.
	Name() string

	// Propose returns the URL to probe for src on page, and false when the
	// strategy does not apply to src.
	Propose(src string, page *url.URL) (string, bool)
}

// DefaultCandidates returns the strategies in the order they are tried:
// Direct, SchemeRelative, Combine.
func DefaultCandidates() []Candidate {
	return []Candidate{Direct{}, SchemeRelative{}, Combine{}}
}

// Direct uses a source that already starts with "http" unchanged.
type Direct struct{}

// Name implements Candidate.
func (Direct) Name() string { return "direct" }

// Propose implements Candidate.
func (Direct) Propose(src string, _ *url.URL) (string, bool) {
	if strings.HasPrefix(src, "http") {
		return src, true
	}
	return "", false
}

// SchemeRelative turns "//host/path" into "http://host/path".
// The page's own scheme is deliberately not used.
type SchemeRelative struct{}

// Name implements Candidate.
func (SchemeRelative) Name() string { return "scheme-relative" }

// Propose implements Candidate.
func (SchemeRelative) Propose(src string, _ *url.URL) (string, bool) {
	if strings.HasPrefix(src, "//") {
		return "http:" + src, true
	}
	return "", false
}

// Combine joins the page's scheme and network location with src:
//
//	scheme + "://" + [userinfo@]host[:port] + "/" + src
//
// It always applies. A src that starts with "/" therefore produces a double
// slash after the host ("http://h//img/a.png"); servers that do not collapse
// it fail the probe and the image stays unresolved.
type Combine struct{}

// Name implements Candidate.
func (Combine) Name() string { return "combine" }

// Propose implements Candidate.
func (Combine) Propose(src string, page *url.URL) (string, bool) {
	if page == nil {
		return "", false
	}
	return page.Scheme + "://" + netloc(page) + "/" + src, true
}

// netloc returns the network location of u including any userinfo.
func netloc(u *url.URL) string {
	if u.User == nil {
		return u.Host
	}
	return u.User.String() + "@" + u.Host
}
