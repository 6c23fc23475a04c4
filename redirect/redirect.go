// Copyright 2021 The fetch Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package redirect

// A Mode is the policy governing how a fetch handles 3XX redirect
// responses.
type Mode int

const (
	// Follow directs the fetch to follow redirect responses
	// automatically, up to the plan's redirect limit. Follow is the
	// zero value and the default.
	Follow Mode = iota
	// Error directs the fetch to fail with a redirect policy error as
	// soon as a redirect response is received.
	Error
	// Manual directs the fetch to return the redirect response itself,
	// unfollowed, with its Location header rewritten to an absolute
	// URL.
	Manual
)

var modeNames = []string{
	"follow",
	"error",
	"manual",
}

// String returns the name of the redirect mode.
func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return "invalid"
	}
	return modeNames[m]
}

// IsRedirectStatus reports whether code is an HTTP status code that
// redirects the request: 301, 302, 303, 307, or 308.
func IsRedirectStatus(code int) bool {
	switch code {
	case 301, 302, 303, 307, 308:
		return true
	default:
		return false
	}
}
