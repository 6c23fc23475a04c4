// Copyright 2021 The fetch Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package fetch

import (
	"encoding/json"
	"io"
	"io/ioutil"
	"net/http"
	urlpkg "net/url"

	"github.com/gogama/fetch/timing"
)

// A Response is the result of a successful fetch: the terminal
// (non-redirected) HTTP response with its body wrapped in the content
// decoding transform selected by the plan's compress flag.
//
// The body is a stream: the client never buffers a complete body, so
// the rate at which the caller reads governs how fast the transport is
// drained. The caller must close Body, directly or via one of the
// buffering helpers, or the connection and the fetch's cancellation
// resources are not released.
type Response struct {
	// StatusCode is the HTTP status code of the response, e.g. 200.
	StatusCode int

	// Status is the HTTP status line text, e.g. "200 OK".
	Status string

	// Header contains the response header fields. In manual redirect
	// mode, any Location header has been rewritten to an absolute URL.
	Header http.Header

	// Body is the decoded response body. Reading it after the fetch
	// has been cancelled returns a *Error; at most one such error is
	// delivered.
	Body io.ReadCloser

	// URL is the effective URL of the response: the URL of the final
	// hop after any followed redirects.
	URL *urlpkg.URL

	// Timings is the latency snapshot taken when the fetch settled.
	Timings timing.Timings
}

// Bytes reads the remainder of the response body to the end, closes
// it, and returns the buffered bytes. On a read error the bytes read
// so far are returned along with the error.
func (r *Response) Bytes() ([]byte, error) {
	defer func() {
		_ = r.Body.Close()
	}()
	return ioutil.ReadAll(r.Body)
}

// Text reads the remainder of the response body to the end, closes it,
// and returns it as a string.
func (r *Response) Text() (string, error) {
	b, err := r.Bytes()
	return string(b), err
}

// JSON reads the remainder of the response body to the end, closes it,
// and unmarshals it into v.
func (r *Response) JSON(v interface{}) error {
	b, err := r.Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}
