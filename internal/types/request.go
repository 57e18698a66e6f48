package types

import (
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Request is the immutable configuration for a single fetch. Headers are
// attached to the request itself rather than to any process-wide client
// state, so every fetch carries exactly the headers its caller chose.
type Request struct {
	// URL is the target URL to fetch.
	URL *url.URL

	// Method is the HTTP method. Defaults to GET.
	Method string

	// Headers are sent verbatim with the request. A "Host" entry overrides
	// the Host derived from the URL (some origins reject requests without a
	// browser-consistent Host).
	Headers http.Header

	// Timeout overrides the fetcher's global timeout for this request.
	// Zero means use the global setting.
	Timeout time.Duration

	// Tag categorizes the request ("sitemap", "detail", "stat", "image").
	Tag string
}

// NewRequest creates a GET Request for rawURL.
func NewRequest(rawURL string) (*Request, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidURL, rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: %q: unsupported scheme", ErrInvalidURL, rawURL)
	}
	return &Request{
		URL:     u,
		Method:  http.MethodGet,
		Headers: make(http.Header),
	}, nil
}

// URLString returns the string form of the request URL.
func (r *Request) URLString() string {
	if r.URL == nil {
		return ""
	}
	return r.URL.String()
}

// Host returns the hostname of the request URL.
func (r *Request) Host() string {
	if r.URL == nil {
		return ""
	}
	return r.URL.Hostname()
}

// WithHeaders returns a copy of the request carrying the given headers.
// The receiver is not modified.
func (r *Request) WithHeaders(h http.Header) *Request {
	clone := *r
	clone.Headers = h.Clone()
	if clone.Headers == nil {
		clone.Headers = make(http.Header)
	}
	return &clone
}
