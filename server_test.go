// Copyright 2021 The fetch Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package fetch

import (
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

// A serverRequest is the recorded shape of one request received by a
// test server: everything the redirect logic is responsible for getting
// right on each hop.
type serverRequest struct {
	Method        string
	Path          string
	Header        http.Header
	Body          []byte
	ContentLength int64
}

// A testServer wraps an httptest server and records every request it
// receives, in order, so tests can assert on the exact hop sequence a
// fetch produced on the wire.
type testServer struct {
	*httptest.Server
	mu       sync.Mutex
	requests []serverRequest
}

func newTestServer(h http.HandlerFunc) *testServer {
	ts := &testServer{}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.record(r)
		h(w, r)
	}))
	return ts
}

func (ts *testServer) record(r *http.Request) {
	b, _ := ioutil.ReadAll(r.Body)
	_ = r.Body.Close()
	header := make(http.Header, len(r.Header))
	for k, v := range r.Header {
		header[k] = append([]string(nil), v...)
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.requests = append(ts.requests, serverRequest{
		Method:        r.Method,
		Path:          r.URL.Path,
		Header:        header,
		Body:          b,
		ContentLength: r.ContentLength,
	})
}

func (ts *testServer) received() []serverRequest {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return append([]serverRequest(nil), ts.requests...)
}

// redirectTo writes a bare redirect response. http.Redirect is not used
// because it writes an HTML body, which would muddy body assertions.
func redirectTo(w http.ResponseWriter, status int, location string) {
	w.Header().Set("Location", location)
	w.WriteHeader(status)
}

// chainHandler serves a redirect chain: a request for hop n < hops
// redirects to /hop/n+1 with the given status, and the request for hop
// n == hops gets a 200 response carrying finalBody. The initial request
// for any other path counts as hop zero.
func chainHandler(status, hops int, finalBody string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n := hopNumber(r.URL.Path)
		if n < hops {
			redirectTo(w, status, fmt.Sprintf("/hop/%d", n+1))
			return
		}
		_, _ = io.WriteString(w, finalBody)
	}
}

func hopNumber(path string) int {
	if !strings.HasPrefix(path, "/hop/") {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimPrefix(path, "/hop/"))
	if err != nil {
		return 0
	}
	return n
}

func gzipHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		zw := gzip.NewWriter(w)
		_, _ = io.WriteString(zw, body)
		_ = zw.Close()
	}
}

func zlibHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Encoding", "deflate")
		zw := zlib.NewWriter(w)
		_, _ = io.WriteString(zw, body)
		_ = zw.Close()
	}
}

// flateHandler serves a raw DEFLATE stream with no zlib envelope, the
// malformed-but-common server behavior the decoder sniffs for.
func flateHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Encoding", "deflate")
		zw, err := flate.NewWriter(w, flate.DefaultCompression)
		if err != nil {
			panic(err)
		}
		_, _ = io.WriteString(zw, body)
		_ = zw.Close()
	}
}
