// Copyright 2021 The fetch Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package request contains the core types Plan (describes a fetch) and
Execution (describes the state of a fetch in flight). These two types
are fundamental to making requests with the fetch client.

The first core type is Plan, which describes one logical fetch.

A Plan describes how to make a logical HTTP fetch, potentially
involving a chain of HTTP requests if the server redirects and the
plan's redirect mode allows following. For those familiar with the Go
standard HTTP library, net/http, a Plan looks like a stripped-down
http.Request structure with all server-side fields removed, plus the
policy knobs the fetch engine needs: redirect mode and limit, a
compress flag for transparent content decoding, and a timeout. Plan
fields are named and typed consistently with http.Request wherever
possible.

Create a plan to make a fetch:

	p, err := request.NewPlan("GET", "https://example.com", nil)
	...
	resp, err := client.Do(p)
	...

A plan may be assigned a context to allow the whole fetch, including
reading the response body, to be cancelled:

	p, err := request.NewPlanWithContext(ctx, "POST", "https://example.com/upload", body)
	...

The plan body may be a fixed buffer (string or []byte), which is
replayable across redirect hops, or a stream (io.Reader), which is
written to the transport once and cannot be re-sent. The fetch engine
refuses to follow a redirect that would have to replay a stream body,
rather than silently losing data.

The second core type is Execution, which represents the observable
state of a fetch: the current hop, the most recent request and
response, and the latency timings collected so far. Execution is the
input type for event handlers invoked during the fetch. You will
typically not allocate Execution instances yourself, but will instead
work with the ones handed out by the client's fetch logic.
*/
package request
