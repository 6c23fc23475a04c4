// Copyright 2021 The fetch Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package fetch

import (
	"fmt"
	"strings"

	"github.com/gogama/fetch/timing"
)

// A Kind classifies the failure modes of a fetch.
type Kind int

const (
	// Abort means the fetch was cancelled through the plan context,
	// either before dispatch or at any point up to body completion.
	Abort Kind = iota
	// Timeout means the plan's timeout elapsed before the headers of
	// the final (non-redirected) response arrived, or the plan
	// context's own deadline was exceeded.
	Timeout
	// Network means the transport failed before a response was
	// received; the wrapped error carries the underlying cause.
	Network
	// RedirectPolicy means a redirect response was received while the
	// plan's redirect mode was redirect.Error.
	RedirectPolicy
	// MaxRedirect means following a redirect would have exceeded the
	// plan's MaxRedirects bound.
	MaxRedirect
	// UnsupportedRedirect means a redirect (other than 303) would have
	// re-issued a request whose stream body cannot be read twice.
	UnsupportedRedirect
	// HeaderCorruption means a manual-mode redirect response carried a
	// Location header that could not be resolved to an absolute URL,
	// so the header could not be rewritten as manual mode promises.
	HeaderCorruption
)

var kindNames = []string{
	"aborted",
	"timeout",
	"network error",
	"redirect received with redirect mode set to error",
	"maximum redirects exceeded",
	"cannot follow redirect with unbuffered request body",
	"cannot rewrite Location header",
}

// String returns a short description of the failure kind.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "invalid"
	}
	return kindNames[k]
}

// An Error is the error type returned for every failed fetch. It
// carries the failure Kind, the operation and URL it failed on, the
// underlying cause (if any), and the snapshot of the latency timings
// captured up to the moment of failure, so latency can be diagnosed
// even on failure paths.
//
// An Error is produced exactly once per fetch: either as the error
// return of the dispatching method, or — if the response body stream
// had already been handed to the caller when cancellation struck — as
// the single error returned from reading that stream. Never both.
type Error struct {
	// Kind classifies the failure.
	Kind Kind
	// Op is the operation that failed, derived from the request
	// method ("Get", "Post", ...).
	Op string
	// URL is the URL of the request that failed. For a failure partway
	// through a redirect chain it is the URL of the failing hop.
	URL string
	// Err is the underlying cause, if any.
	Err error
	// Timings is the latency snapshot at failure time. Fields for
	// phases that never occurred are zero.
	Timings timing.Timings
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch: %s %q: %s: %v", e.Op, e.URL, e.Kind, e.Err)
	}
	return fmt.Sprintf("fetch: %s %q: %s", e.Op, e.URL, e.Kind)
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Timeout reports whether the error represents a timeout, following
// the convention of net.Error.
func (e *Error) Timeout() bool {
	return e.Kind == Timeout
}

// errorOp is lifted verbatim from net/http/client.go (urlErrorOp).
func errorOp(method string) string {
	if method == "" {
		return "Get"
	}
	return method[:1] + strings.ToLower(method[1:])
}
