// Copyright 2021 The fetch Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	urlpkg "net/url"
	"strings"
	"time"

	"golang.org/x/net/http/httpguts"

	"github.com/gogama/fetch/redirect"
)

var (
	template, _ = http.NewRequest("GET", "", nil)
)

const (
	nilCtxMsg = "fetch/request: nil context"
)

// DefaultMaxRedirects is the redirect hop limit set on plans created
// by NewPlan and NewPlanWithContext.
const DefaultMaxRedirects = 20

// A Plan is an immutable-by-convention description of one fetch: the
// URL, method, headers and body to send, and the policy knobs that
// control how the fetch behaves (redirect mode and limit, content
// decoding, timeout, connection pool).
//
// A Plan describes a logical fetch, not a single wire exchange: when
// the redirect mode is Follow, executing the plan may issue several
// HTTP requests, one per redirect hop.
//
// Like the http.Request structure, a Plan has a context which controls
// the lifetime of the whole fetch and can be used to cancel it at any
// time, including while the response body is being read.
type Plan struct {
	// Method specifies the HTTP method (GET, POST, PUT, etc.).
	// An empty string means GET.
	Method string

	// URL specifies the URL to access.
	URL *urlpkg.URL

	// Header contains the request header fields to be sent.
	//
	// For further details, see the documentation of Request.Header in
	// the net/http package.
	Header http.Header

	// Body is a fixed-length, replayable request body. A nil or empty
	// Body together with a nil BodyStream means no request body is
	// sent.
	//
	// Because its total size is known and it can be read again, a Body
	// survives redirect hops that re-issue the request.
	Body []byte

	// BodyStream is an unbounded request body. It is consulted only
	// when Body is nil. The stream is read once, directly to the
	// transport; its total size is unknown and it cannot be replayed,
	// so a fetch that would have to re-send it on a redirect hop fails
	// rather than silently losing data (303 excepted, which drops the
	// body).
	//
	// If BodyStream implements io.Closer it is closed when the fetch
	// is done with it.
	BodyStream io.Reader

	// Redirect is the redirect mode for the fetch. The zero value is
	// redirect.Follow.
	Redirect redirect.Mode

	// MaxRedirects bounds the number of redirect hops followed when
	// Redirect is redirect.Follow. NewPlan sets it to
	// DefaultMaxRedirects. A fetch whose hop count would exceed the
	// bound fails with a max-redirect error.
	MaxRedirects int

	// Compress enables transparent decoding of gzip- and
	// deflate-encoded response bodies. NewPlan sets it to true.
	Compress bool

	// Timeout bounds the time from dispatch until the headers of the
	// final (non-redirected) response arrive. Zero disables the
	// timeout. Reading the response body is not covered by Timeout but
	// remains cancellable through the plan context.
	Timeout time.Duration

	// Transport optionally overrides the client's connection pool for
	// this plan. If nil, the client's transport is used.
	Transport http.RoundTripper

	// Close stipulates whether to close the connection after the
	// fetch, preventing re-use of the TCP connection, as if
	// Transport.DisableKeepAlives were set.
	Close bool

	// Host optionally overrides the Host header sent on the first hop.
	// If empty, the value of URL.Host is sent. Redirect hops always
	// derive their Host from the hop URL.
	Host string

	// ctx controls the lifetime of the whole fetch. It should only be
	// modified by copying the whole Plan using WithContext.
	ctx context.Context
}

// NewPlan wraps NewPlanWithContext using the background context.
//
// Parameter body may be nil (empty body), or it may be a string,
// []byte, or io.Reader. Strings and byte slices become the plan's
// fixed, replayable Body; a reader becomes the plan's BodyStream and
// is not read until the fetch is dispatched.
func NewPlan(method, url string, body interface{}) (*Plan, error) {
	return NewPlanWithContext(context.Background(), method, url, body)
}

// NewPlanWithContext returns a new Plan given a method, URL, and
// optional body. The plan follows redirects up to DefaultMaxRedirects
// and decodes compressed response bodies; adjust the Redirect,
// MaxRedirects, Compress, and Timeout fields before dispatch to change
// the policy.
//
// Parameter body may be nil (empty body), or it may be a string,
// []byte, or io.Reader. Strings and byte slices become the plan's
// fixed, replayable Body; a reader becomes the plan's BodyStream and
// is not read until the fetch is dispatched.
func NewPlanWithContext(ctx context.Context, method, url string, body interface{}) (*Plan, error) {
	if ctx == nil {
		return nil, errors.New(nilCtxMsg)
	}
	if method == "" {
		method = "GET"
	}
	if !validMethod(method) {
		return nil, fmt.Errorf("fetch/request: invalid method %q", method)
	}
	u, err := urlpkg.Parse(url)
	if err != nil {
		return nil, err
	}
	u.Host = removeEmptyPort(u.Host)
	p := &Plan{
		ctx:          ctx,
		Method:       method,
		URL:          u,
		Header:       make(http.Header),
		MaxRedirects: DefaultMaxRedirects,
		Compress:     true,
		Host:         u.Host,
	}
	switch x := body.(type) {
	case nil:
	case string:
		p.Body = []byte(x)
	case []byte:
		p.Body = x
	case io.Reader:
		p.BodyStream = x
	default:
		return nil, errors.New(badBodyTypeMsg)
	}
	return p, nil
}

// Context returns the plan's context. The context controls
// cancellation of the whole fetch. To change the context, use
// WithContext.
//
// The returned context is always non-nil; it defaults to the
// background context.
func (p *Plan) Context() context.Context {
	if p.ctx != nil {
		return p.ctx
	}
	return context.Background()
}

// WithContext returns a shallow copy of p with its context changed to
// ctx, which must be non-nil.
//
// The context controls the entire lifetime of the fetch: obtaining a
// connection, sending the request, receiving response headers on every
// redirect hop, and reading the response body.
//
// To create a new plan with a context, use NewPlanWithContext.
func (p *Plan) WithContext(ctx context.Context) *Plan {
	if ctx == nil {
		panic(nilCtxMsg)
	}
	p2 := new(Plan)
	*p2 = *p
	p2.ctx = ctx
	return p2
}

// BodyKind classifies the plan's body for the redirect decision: no
// body, a fixed replayable body, or an unbounded stream.
func (p *Plan) BodyKind() redirect.BodyKind {
	switch {
	case len(p.Body) > 0:
		return redirect.ReplayableBody
	case p.BodyStream != nil:
		return redirect.StreamBody
	default:
		return redirect.NoBody
	}
}

// AddCookie adds a cookie to the request. Per RFC 6265 section 5.4,
// AddCookie does not attach more than one Cookie header field. That
// means all cookies, if any, are written into the same line,
// separated by semicolons.
//
// AddCookie only sanitizes c's name and value, and does not sanitize
// a Cookie header already present in the request.
func (p *Plan) AddCookie(c *http.Cookie) {
	c2 := &http.Cookie{Name: c.Name, Value: c.Value}
	s := c2.String()
	if h := p.Header.Get("Cookie"); h != "" {
		p.Header.Set("Cookie", h+"; "+s)
	} else {
		p.Header.Set("Cookie", s)
	}
}

// SetBasicAuth sets the plan's Authorization header to use HTTP
// Basic Authentication with the provided username and password.
//
// With HTTP Basic Authentication the provided username and password
// are not encrypted.
//
// Some protocols may impose additional requirements on pre-escaping the
// username and password. For instance, when used with OAuth2, both arguments
// must be URL encoded first with url.QueryEscape.
func (p *Plan) SetBasicAuth(username, password string) {
	p.Header.Set("Authorization", "Basic "+basicAuth(username, password))
}

// ToRequest creates the HTTP request for the plan's first hop. The
// context of the new request is set to ctx, which may not be nil.
func (p *Plan) ToRequest(ctx context.Context) *http.Request {
	r := template.WithContext(ctx)
	r.Method = p.Method
	r.URL = p.URL
	r.Header = p.Header
	if len(p.Body) > 0 {
		body := p.Body
		r.Body = ioutil.NopCloser(bytes.NewReader(body))
		r.GetBody = func() (io.ReadCloser, error) {
			return ioutil.NopCloser(bytes.NewReader(body)), nil
		}
		r.ContentLength = int64(len(body))
	} else if p.BodyStream != nil {
		if rc, ok := p.BodyStream.(io.ReadCloser); ok {
			r.Body = rc
		} else {
			r.Body = ioutil.NopCloser(p.BodyStream)
		}
		r.ContentLength = -1
	}
	r.Close = p.Close
	r.Host = p.Host
	return r
}

// basicAuth is lifted verbatim from net/http/client.go.
//
// See 2 (end of page 4) https://www.ietf.org/rfc/rfc2617.txt
// "To receive authorization, the client sends the userid and password,
// separated by a single colon (":") character, within a base64
// encoded string in the credentials."
// It is not meant to be urlencoded.
func basicAuth(username, password string) string {
	auth := username + ":" + password
	return base64.StdEncoding.EncodeToString([]byte(auth))
}

// validMethod reports whether method is a valid HTTP token per
// RFC 7230 section 3.2.6. Length need not be checked because the
// empty string is interpreted as "GET" before this point.
func validMethod(method string) bool {
	return strings.IndexFunc(method, isNotToken) == -1
}

func isNotToken(r rune) bool {
	return !httpguts.IsTokenRune(r)
}

// hasPort is lifted verbatim from net/http/http.go
//
// Given a string of the form "host", "host:port", or "[ipv6::address]:port",
// return true if the string includes a port.
func hasPort(s string) bool { return strings.LastIndex(s, ":") > strings.LastIndex(s, "]") }

// removeEmptyPort is lifted verbatim from net/http/http.go
//
// removeEmptyPort strips the empty port in ":port" to ""
// as mandated by RFC 3986 Section 6.2.3.
func removeEmptyPort(host string) string {
	if hasPort(host) {
		return strings.TrimSuffix(host, ":")
	}
	return host
}
