// Copyright 2021 The fetch Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"context"
	"net/http"
	"time"

	"github.com/gogama/fetch/timing"
)

// An Execution represents the observable state of a single Plan
// execution (one fetch).
//
// When a fetch is dispatched, an Execution is created for it. The
// Execution is updated as the fetch progresses, hop by hop, and is
// passed to every event handler invoked during the fetch.
//
// Event handlers may set values on an Execution using its SetValue
// method and read them back using the Value method. However, they
// should treat the structure's exported field values as immutable and
// leave them unmodified, as the execution state is vital to the
// correct functioning of the fetch logic. A limited exception is
// making reasonable changes to the http.Request before it is sent, for
// example to support an OAuth or AWS signing use case.
type Execution struct {
	// Plan specifies the fetch plan being executed. It is never nil.
	Plan *Plan

	// Start is the start time of the fetch. It is assigned a non-zero
	// value when the fetch starts, and this value remains constant
	// thereafter.
	Start time.Time

	// End is the end time of the fetch. It contains the zero value
	// until the fetch settles, when it is set to the current time.
	End time.Time

	// Hop is the zero-based number of the current redirect hop. It is
	// zero on the initial request, one on the first followed redirect,
	// and so on. It never decreases.
	Hop int

	// Redirects is the count of redirect hops followed so far during
	// the fetch. It is strictly bounded by the plan's MaxRedirects.
	Redirects int

	// Request specifies the HTTP request to be sent in the current
	// hop, or already sent in the most recent hop.
	Request *http.Request

	// Response specifies the HTTP response received in the most recent
	// hop. It will be nil if the most recent hop ended in an error, or
	// if a hop is underway, or before the fetch starts.
	Response *http.Response

	// Err indicates the error, if any, that settled the fetch. It is
	// nil while the fetch is in flight and stays nil if the fetch
	// settles successfully.
	Err error

	// Timings is the latency record of the fetch. It is populated
	// best-effort as socket lifecycle milestones occur and is never
	// nil once the fetch has started.
	Timings *timing.Timings

	// data contains arbitrary user data attached by event handlers via
	// SetValue.
	data context.Context
}

// StatusCode returns the status code of the HTTP response from the
// most recent hop in the fetch. If there is no HTTP response, 0 is
// returned.
func (e *Execution) StatusCode() int {
	if e.Response == nil {
		return 0
	}

	return e.Response.StatusCode
}

// Header returns the HTTP response headers from the most recent hop in
// the fetch. If there is no HTTP response, the nil header is returned.
//
// Note that a nil return value is always safe for read-only operations,
// since http.Header is a map type. There should never be a reason to
// write to the returned value, since it represents the response headers.
func (e *Execution) Header() http.Header {
	if e.Response == nil {
		var nilHeader http.Header
		return nilHeader
	}

	return e.Response.Header
}

// Duration returns the duration of the fetch.
//
// If the fetch has not yet started, the duration is zero. If the fetch
// has Ended, the duration returned is equal to End minus Start.
// Otherwise, it is equal to the current time minus Start. The return
// value is thus monotonically increasing over the life of the fetch,
// and becomes static when the fetch has ended.
func (e *Execution) Duration() time.Duration {
	if !e.Started() {
		return time.Duration(0)
	} else if !e.Ended() {
		return time.Now().Sub(e.Start)
	}

	return e.End.Sub(e.Start)
}

// Started indicates whether the fetch has started.
//
// If the return value is false, the fetch has not started yet. If the
// return value is true, then the fetch has started, and Start is a
// non-zero time, indicating the fetch start time.
func (e *Execution) Started() bool {
	return e.Start != (time.Time{})
}

// Ended indicates whether the fetch has settled.
//
// If the return value is false, the fetch is still in-flight. If the
// return value is true, then the fetch is over, End is a non-zero
// time, and there will be no further changes to the execution.
func (e *Execution) Ended() bool {
	return e.End != (time.Time{})
}

// SetValue allows event handlers to store arbitrary data in the fetch
// execution.
//
// The key must follow the same rules as the key parameter in
// context.WithValue, namely it:
//
// • it may not be nil;
//
// • it must be comparable;
//
// • it should not be of type string or any other built-in type to avoid
// collisions between different event handlers putting data into the
// same execution.
func (e *Execution) SetValue(key, value interface{}) {
	ctx := e.data
	if ctx == nil {
		ctx = context.Background()
	}

	e.data = context.WithValue(ctx, key, value)
}

// Value returns the data value associated with this execution for key,
// or nil if there is no value associated with key.
func (e *Execution) Value(key interface{}) interface{} {
	ctx := e.data
	if ctx == nil {
		return nil
	}

	return ctx.Value(key)
}
