// Copyright 2021 The fetch Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package fetch

// An Event identifies the event type when installing or running a
// Handler. Install event handlers in a Client to extend it with custom
// functionality.
type Event int

const (
	// BeforeFetchStart identifies the event that occurs before the
	// fetch starts.
	//
	// When Client fires BeforeFetchStart, the execution is non-nil but
	// only its plan and (empty) timings fields have been set.
	BeforeFetchStart Event = iota
	// BeforeHop identifies the event that occurs before each HTTP
	// request sent during the fetch: once for the initial request and
	// once per followed redirect.
	//
	// When Client fires BeforeHop, the execution's request field is
	// set to the HTTP request that WILL BE sent after all BeforeHop
	// handlers have finished.
	//
	// BeforeHop handlers may modify the execution's request, or some
	// of its fields, thus changing the HTTP request that will be sent.
	// However, BeforeHop handlers should clone request fields which
	// have reference types (URL and Header) before changing them to
	// avoid side effects, as on the first hop these fields reference
	// the same-named fields in the plan.
	BeforeHop
	// AfterHop identifies the event that occurs after each HTTP
	// request sent during the fetch is concluded, regardless of
	// whether it concluded successfully or not.
	//
	// When Client fires AfterHop, either the execution's response
	// field or its error field is set to a non-nil value, but never
	// both. The redirect decision for the hop has not yet been made.
	AfterHop
	// AfterRedirect identifies the event that occurs after the fetch
	// decides to follow a redirect, and before the follow-up request
	// is built.
	//
	// When Client fires AfterRedirect, the execution's redirect
	// counter has been incremented and its response field still
	// references the redirect response being followed.
	AfterRedirect
	// AfterFetchEnd identifies the event that occurs after the fetch
	// settles, successfully or not.
	//
	// When Client fires AfterFetchEnd, the execution's end time is
	// set, and its error field contains the error the fetch settled
	// with, if any. The response body has typically not been read yet.
	AfterFetchEnd
	// eventSentinel provides the total number of events typed as an
	// Event.
	eventSentinel

	// numEvents provides the total number of events typed as an int.
	numEvents = int(eventSentinel)
)

var eventNames = []string{
	"BeforeFetchStart",
	"BeforeHop",
	"AfterHop",
	"AfterRedirect",
	"AfterFetchEnd",
}

// Events returns a slice containing all events which can occur in a
// fetch executed by Client, in the order in which they would occur.
func Events() []Event {
	return []Event{
		BeforeFetchStart,
		BeforeHop,
		AfterHop,
		AfterRedirect,
		AfterFetchEnd,
	}
}

// Name returns the name of the event.
func (evt Event) Name() string {
	return eventNames[int(evt)]
}

// String returns the name of the event.
func (evt Event) String() string {
	return evt.Name()
}
