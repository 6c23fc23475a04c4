// Copyright 2021 The fetch Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package redirect

import (
	"net/http"
	urlpkg "net/url"
)

// A BodyKind classifies the request body of the hop under decision,
// from the perspective of re-issuing the request on a followed
// redirect.
type BodyKind int

const (
	// NoBody means the request carries no body.
	NoBody BodyKind = iota
	// ReplayableBody means the request body is a fixed-length source
	// that can be read again on a follow-up request.
	ReplayableBody
	// StreamBody means the request body is an unbounded stream whose
	// total size is unknown and which cannot be read twice.
	StreamBody
)

// A Reason explains why a Decision rejects the fetch.
type Reason int

const (
	// Policy means the redirect mode is Error and a redirect response
	// was received.
	Policy Reason = iota
	// TooManyRedirects means following the redirect would exceed the
	// plan's redirect limit.
	TooManyRedirects
	// UnsupportedStreamBody means the redirect would re-issue a
	// request whose stream body cannot be read twice. Following it
	// silently would lose body data, so the fetch fails instead.
	UnsupportedStreamBody
	// CorruptLocation means the redirect mode is Manual and the
	// response carried a Location header that cannot be resolved to
	// an absolute URL, so the header cannot be rewritten. Manual mode
	// promises the caller an absolute Location, so the failure is
	// surfaced instead of silently returning the raw header.
	CorruptLocation
)

// A Kind discriminates the variants of a Decision.
type Kind int

const (
	// None means the response is not handled as a redirect: the fetch
	// proceeds to body handling with this response as the result.
	None Kind = iota
	// Rewrite means the response is returned unfollowed with its
	// Location header rewritten to the absolute URL in
	// Decision.Location (Manual mode).
	Rewrite
	// Reject means the fetch fails; Decision.Reason says why.
	Reject
	// FollowHop means the fetch issues a follow-up request described
	// by Decision.Location, Decision.Method and Decision.DropBody.
	FollowHop
)

// Input is the state a redirect decision is computed from: the
// response status, the Location header it carried, and the request
// that provoked it.
type Input struct {
	// StatusCode is the HTTP status code of the response.
	StatusCode int
	// Mode is the redirect mode of the plan.
	Mode Mode
	// Method is the HTTP method of the request that produced the
	// response.
	Method string
	// Body classifies the request body of the original request.
	Body BodyKind
	// Location is the raw Location header value from the response, or
	// the empty string if the header is absent.
	Location string
	// RequestURL is the URL of the request that produced the
	// response. Relative Location values are resolved against it.
	RequestURL *urlpkg.URL
	// Redirects is the number of redirect hops already followed in
	// this fetch.
	Redirects int
	// MaxRedirects is the plan's redirect limit.
	MaxRedirects int
}

// A Decision is the outcome of evaluating one response against the
// redirect policy. It is a tagged variant: which of the remaining
// fields are meaningful depends on Kind.
type Decision struct {
	// Kind discriminates the variant.
	Kind Kind
	// Location is the absolute redirect target (Rewrite, FollowHop).
	Location *urlpkg.URL
	// Method is the method of the follow-up request (FollowHop). It
	// is rewritten to GET when the redirect semantics require it.
	Method string
	// DropBody reports whether the follow-up request must be sent
	// without the original body and without a Content-Length header
	// (FollowHop).
	DropBody bool
	// Reason explains a rejection (Reject).
	Reason Reason
}

// Decide evaluates one response against the redirect policy and
// returns the resulting Decision.
//
// A response whose status is not a redirect status decides None. A
// Location header that is absent causes Follow and Manual modes to
// fall back to None (the response is treated as a terminal result);
// a Location that is present but cannot be resolved against the
// request URL falls back to None in Follow mode but rejects with
// CorruptLocation in Manual mode, which promises the caller an
// absolute Location. Mode Error rejects any redirect status,
// Location or not.
//
// In Follow mode, the decision rejects with TooManyRedirects when the
// hop limit is reached, and with UnsupportedStreamBody when the
// original request carried a stream body that a non-303 follow-up
// would have to replay. A 303 response, or a 301/302 response to a
// POST, rewrites the follow-up to a bodiless GET.
func Decide(in Input) Decision {
	if !IsRedirectStatus(in.StatusCode) {
		return Decision{Kind: None}
	}

	var location *urlpkg.URL
	if in.Location != "" {
		if u, err := in.RequestURL.Parse(in.Location); err == nil {
			location = u
		}
	}

	switch in.Mode {
	case Error:
		return Decision{Kind: Reject, Reason: Policy}
	case Manual:
		if in.Location == "" {
			return Decision{Kind: None}
		}
		if location == nil {
			return Decision{Kind: Reject, Reason: CorruptLocation}
		}
		return Decision{Kind: Rewrite, Location: location}
	}

	if location == nil {
		return Decision{Kind: None}
	}
	if in.Redirects >= in.MaxRedirects {
		return Decision{Kind: Reject, Reason: TooManyRedirects}
	}
	if in.StatusCode != 303 && in.Body == StreamBody {
		return Decision{Kind: Reject, Reason: UnsupportedStreamBody}
	}

	d := Decision{Kind: FollowHop, Location: location, Method: in.Method}
	if in.StatusCode == 303 ||
		((in.StatusCode == 301 || in.StatusCode == 302) && in.Method == http.MethodPost) {
		d.Method = http.MethodGet
		d.DropBody = true
	}
	return d
}
