// Copyright 2021 The fetch Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package fetch

import (
	"context"
	"io"
	"net/http"
	urlpkg "net/url"
	"sync"
	"time"

	"github.com/gogama/fetch/decode"
	"github.com/gogama/fetch/redirect"
	"github.com/gogama/fetch/request"
	"github.com/gogama/fetch/timing"
)

var emptyHandlers = HandlerGroup{}

// A Client is an HTTP fetch client implementing standard client-side
// fetch semantics: automatic redirect chasing with a per-plan redirect
// mode, transparent content decoding, cancellation and timeout, and
// per-phase latency instrumentation. Its zero value is a valid
// configuration.
//
// The zero value client uses http.DefaultTransport (from net/http) as
// the transport and an empty handler group (no event handlers).
//
// Client's transport typically has internal state (cached TCP
// connections) so Client instances should be reused instead of created
// as needed. Client is safe for concurrent use by multiple goroutines.
//
// A Client is higher-level than an http.RoundTripper. The transport is
// responsible for one wire exchange at a time — connection pooling,
// DNS, TLS, HTTP version negotiation — while Client builds on top of
// it:
//
// • Client interprets redirect responses per the plan's redirect mode,
// re-issuing follow-up requests with correctly rewritten method, body,
// and headers;
//
// • Client selects and wires a decompression transform onto the
// response body (gzip, and zlib-wrapped or raw deflate);
//
// • Client coordinates cancellation, timeout, and teardown exactly
// once per fetch, and attaches a latency timings snapshot to every
// result and every error;
//
// • Client invokes user-provided handler functions at designated
// plug-in points within the fetch, allowing new features to be mixed
// in from outside libraries; and
//
// • Client implements the fetch.Executor interface.
//
// Client's HTTP methods should feel familiar to anyone who has used
// the Go standard HTTP client (http.Client). The methods use the same
// names, and follow the same rough parameter schema, as the Go
// standard client. The main differences are:
//
// • instead of consuming an http.Request, Client.Do consumes a
// request.Plan describing the whole fetch, which the dispatch logic
// converts into one http.Request per redirect hop; and
//
// • instead of producing an http.Response, all of Client's HTTP
// methods return a fetch.Response carrying the decoded body stream,
// the effective (post-redirect) URL, and the timings snapshot.
type Client struct {
	// Transport specifies the mechanics of sending a single HTTP
	// request and receiving its response. It is the connection pool
	// handle for every plan that does not carry its own.
	//
	// If Transport is nil, http.DefaultTransport from the standard
	// net/http package is used.
	Transport http.RoundTripper
	// Handlers allows custom handler chains to be invoked when
	// designated events occur during a fetch.
	//
	// If Handlers is nil, no custom handlers will be run.
	Handlers *HandlerGroup
}

// Do executes a fetch plan and returns the terminal response,
// following the redirect, decoding, and timeout policy set on the
// plan.
//
// An error is returned if the fetch was cancelled or timed out, if the
// transport failed before a response was received, or if redirect
// policy rejected the fetch (mode error, hop bound exceeded, or a
// non-replayable body on a non-303 redirect). A non-2XX status code
// does not result in an error. Every returned error is a *Error
// carrying the latency timings captured up to the failure.
//
// If the returned error is nil, the returned Response is non-nil and
// its Body must be closed by the caller. If the returned error is
// non-nil, the returned Response is nil. The error and the response
// body are settled exactly once: once Do has returned a Response,
// later cancellation surfaces as a single error on the body stream,
// never as a second result.
//
// For simple use cases, the Get, Head, Post, and PostForm methods may
// prove easier to use than Do.
func (c *Client) Do(p *request.Plan) (*Response, error) {
	f := &fetcher{
		plan:      p,
		transport: c.transport(p),
		handlers:  c.handlers(),
		exec:      &request.Execution{Plan: p, Timings: &timing.Timings{}},
	}

	f.handlers.run(BeforeFetchStart, f.exec)
	f.exec.Start = time.Now()
	f.collector = timing.NewCollector(f.exec.Start)

	resp, err := f.run()

	f.exec.End = time.Now()
	f.handlers.run(AfterFetchEnd, f.exec)
	return resp, err
}

// Get issues a GET to the specified URL, using the same policies
// followed by Do.
//
// To make a fetch plan with custom headers or redirect policy, use
// request.NewPlan and Client.Do.
func (c *Client) Get(url string) (*Response, error) {
	return Get(c, url)
}

// Head issues a HEAD to the specified URL, using the same policies
// followed by Do.
//
// To make a fetch plan with custom headers or redirect policy, use
// request.NewPlan and Client.Do.
func (c *Client) Head(url string) (*Response, error) {
	return Head(c, url)
}

// Post issues a POST to the specified URL, using the same policies
// followed by Do.
//
// The body parameter may be nil for an empty body, or may be any of
// the types supported by request.NewPlan, namely: string; []byte; and
// io.Reader (sent as a stream).
//
// To make a fetch plan with custom headers or redirect policy, use
// request.NewPlan and Client.Do.
func (c *Client) Post(url, contentType string, body interface{}) (*Response, error) {
	return Post(c, url, contentType, body)
}

// PostForm issues a POST to the specified URL, with data's keys and
// values URL-encoded as the request body.
//
// The Content-Type header is set to application/x-www-form-urlencoded.
// To set other headers, use request.NewPlan and Client.Do.
func (c *Client) PostForm(url string, data urlpkg.Values) (*Response, error) {
	return PostForm(c, url, data)
}

// CloseIdleConnections invokes the same method on the client's
// underlying transport.
//
// If the transport has no CloseIdleConnections method, this method
// does nothing.
func (c *Client) CloseIdleConnections() {
	transport := c.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	if ic, ok := transport.(IdleCloser); ok {
		ic.CloseIdleConnections()
	}
}

func (c *Client) transport(p *request.Plan) http.RoundTripper {
	if p.Transport != nil {
		return p.Transport
	}
	if c.Transport != nil {
		return c.Transport
	}
	return http.DefaultTransport
}

func (c *Client) handlers() *HandlerGroup {
	if c.Handlers != nil {
		return c.Handlers
	}
	return &emptyHandlers
}

// A fetcher owns the state of one fetch: the hop loop, the timeout
// timer, the cancellation plumbing, and the timing collector. It
// settles exactly once, either by returning a Response or by returning
// a *Error from fail.
type fetcher struct {
	plan      *request.Plan
	transport http.RoundTripper
	handlers  *HandlerGroup
	exec      *request.Execution
	collector *timing.Collector

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	timer    *time.Timer
	timedOut bool
}

func (f *fetcher) run() (*Response, error) {
	p := f.plan

	if err := p.Context().Err(); err != nil {
		return nil, f.fail(ctxKind(err), err, p.Method, p.URL)
	}

	f.ctx, f.cancel = context.WithCancel(p.Context())
	hopCtx := f.collector.Attach(f.ctx)
	if p.Timeout > 0 {
		f.mu.Lock()
		f.timer = time.AfterFunc(p.Timeout, f.onTimeout)
		f.mu.Unlock()
	}

	method := p.Method
	u := p.URL
	header := acceptEncoding(p.Header, p.Compress)
	bodyKind := p.BodyKind()

	for {
		f.exec.Response = nil
		f.exec.Request = f.hopRequest(hopCtx, method, u, header, bodyKind)
		f.handlers.run(BeforeHop, f.exec)

		resp, err := f.transport.RoundTrip(f.exec.Request)
		if err != nil {
			failErr := f.fail(f.transportKind(), err, method, u)
			f.handlers.run(AfterHop, f.exec)
			return nil, failErr
		}
		f.exec.Response = resp
		f.refreshTimings()
		f.handlers.run(AfterHop, f.exec)

		decision := redirect.Decide(redirect.Input{
			StatusCode:   resp.StatusCode,
			Mode:         p.Redirect,
			Method:       method,
			Body:         bodyKind,
			Location:     resp.Header.Get("Location"),
			RequestURL:   u,
			Redirects:    f.exec.Redirects,
			MaxRedirects: p.MaxRedirects,
		})

		switch decision.Kind {
		case redirect.Reject:
			_ = resp.Body.Close()
			return nil, f.fail(rejectKind(decision.Reason), nil, method, u)
		case redirect.Rewrite:
			resp.Header.Set("Location", decision.Location.String())
			return f.assemble(resp, method, u), nil
		case redirect.FollowHop:
			_ = resp.Body.Close()
			method = decision.Method
			u = decision.Location
			if decision.DropBody {
				bodyKind = redirect.NoBody
				header = cloneHeader(header)
				header.Del("Content-Length")
			}
			f.exec.Hop++
			f.exec.Redirects++
			f.handlers.run(AfterRedirect, f.exec)
		default: // redirect.None
			return f.assemble(resp, method, u), nil
		}
	}
}

// hopRequest builds the HTTP request for one hop. The first hop is the
// plan's own request; follow-up hops re-derive it with the rewritten
// method, URL, headers and body, and let the Host header follow the
// hop URL.
func (f *fetcher) hopRequest(ctx context.Context, method string, u *urlpkg.URL, header http.Header, bodyKind redirect.BodyKind) *http.Request {
	r := f.plan.ToRequest(ctx)
	r.Header = header
	if f.exec.Hop == 0 {
		return r
	}
	r.Method = method
	r.URL = u
	r.Host = ""
	if bodyKind == redirect.NoBody {
		r.Body = nil
		r.GetBody = nil
		r.ContentLength = 0
	}
	return r
}

// assemble produces the terminal Response: the timeout timer is
// disarmed, the timings record is settled, and the raw body is wrapped
// in the content decoding transform and the stream-level error
// mapping. The fetch's cancel function stays live until the body is
// closed, so the plan context keeps controlling the body read.
func (f *fetcher) assemble(resp *http.Response, method string, u *urlpkg.URL) *Response {
	f.stopTimer()
	f.collector.Settle()
	f.refreshTimings()
	decoded := decode.Reader(resp.Body, resp.Header.Get("Content-Encoding"),
		method, resp.StatusCode, f.plan.Compress)
	return &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		Body: &bodyStream{
			body:   decoded,
			f:      f,
			method: method,
			url:    u.String(),
		},
		URL:     u,
		Timings: f.collector.Snapshot(),
	}
}

// fail settles the fetch with an error carrying the timings snapshot
// taken at failure time, after tearing down the timer and the hop
// context.
func (f *fetcher) fail(kind Kind, cause error, method string, u *urlpkg.URL) error {
	f.teardown()
	f.collector.Settle()
	f.refreshTimings()
	err := &Error{
		Kind:    kind,
		Op:      errorOp(method),
		URL:     u.String(),
		Err:     cause,
		Timings: f.collector.Snapshot(),
	}
	f.exec.Err = err
	return err
}

func (f *fetcher) onTimeout() {
	f.mu.Lock()
	f.timedOut = true
	f.mu.Unlock()
	f.cancel()
}

// stopTimer disarms the timeout timer. It is idempotent. Any terminal
// event disarms the timer so a stale timer cannot fire after success.
func (f *fetcher) stopTimer() {
	f.mu.Lock()
	timer := f.timer
	f.timer = nil
	f.mu.Unlock()
	if timer != nil {
		timer.Stop()
	}
}

// teardown releases the fetch's resources: the timeout timer and the
// hop context. It is idempotent and may run multiple times from racing
// event sources (timer, transport error, cancellation, body close)
// without double-effect.
func (f *fetcher) teardown() {
	f.stopTimer()
	if f.cancel != nil {
		f.cancel()
	}
}

// transportKind classifies a transport-level failure: a timer-driven
// cancellation is a Timeout, a plan context cancellation is an Abort
// (or Timeout for the context's own deadline), anything else is a
// Network failure wrapping the underlying cause.
func (f *fetcher) transportKind() Kind {
	if kind, ok := f.interrupted(); ok {
		return kind
	}
	return Network
}

func (f *fetcher) interrupted() (Kind, bool) {
	f.mu.Lock()
	timedOut := f.timedOut
	f.mu.Unlock()
	if timedOut {
		return Timeout, true
	}
	if err := f.plan.Context().Err(); err != nil {
		return ctxKind(err), true
	}
	return 0, false
}

func (f *fetcher) refreshTimings() {
	*f.exec.Timings = f.collector.Snapshot()
}

func ctxKind(err error) Kind {
	if err == context.DeadlineExceeded {
		return Timeout
	}
	return Abort
}

func rejectKind(r redirect.Reason) Kind {
	switch r {
	case redirect.TooManyRedirects:
		return MaxRedirect
	case redirect.UnsupportedStreamBody:
		return UnsupportedRedirect
	case redirect.CorruptLocation:
		return HeaderCorruption
	default:
		return RedirectPolicy
	}
}

// acceptEncoding pins the Accept-Encoding header so the transport's
// own transparent decompression never engages. Content decoding belongs
// to the fetch, gated by the plan's compress flag, and the transport
// only decompresses when it added the header itself. A caller-supplied
// Accept-Encoding wins.
func acceptEncoding(h http.Header, compress bool) http.Header {
	if _, ok := h["Accept-Encoding"]; ok {
		return h
	}
	h = cloneHeader(h)
	if compress {
		h.Set("Accept-Encoding", "gzip, deflate")
	} else {
		h.Set("Accept-Encoding", "identity")
	}
	return h
}

func cloneHeader(h http.Header) http.Header {
	h2 := make(http.Header, len(h))
	for k, v := range h {
		v2 := make([]string, len(v))
		copy(v2, v)
		h2[k] = v2
	}
	return h2
}

// bodyStream is the body handed to the caller. It maps a cancellation
// that strikes after the fetch has settled into exactly one *Error
// delivered on the live stream, and releases the fetch's cancellation
// resources on Close.
type bodyStream struct {
	body   io.ReadCloser
	f      *fetcher
	method string
	url    string
	err    error
}

func (b *bodyStream) Read(p []byte) (int, error) {
	if b.err != nil {
		return 0, b.err
	}
	n, err := b.body.Read(p)
	if err != nil && err != io.EOF {
		if kind, ok := b.f.interrupted(); ok {
			err = &Error{
				Kind:    kind,
				Op:      errorOp(b.method),
				URL:     b.url,
				Err:     err,
				Timings: b.f.collector.Snapshot(),
			}
		}
	}
	if err != nil {
		b.err = err
	}
	return n, err
}

func (b *bodyStream) Close() error {
	err := b.body.Close()
	b.f.teardown()
	return err
}
