// Copyright 2021 The fetch Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"context"
	"io/ioutil"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogama/fetch/redirect"
)

func TestNewPlan(t *testing.T) {
	for _, testCase := range newPlanTestCases {
		t.Run(testCase.name, func(t *testing.T) {
			p, err := NewPlan(testCase.method, testCase.url, testCase.body)
			testCase.asserts(t, p, err)
			if p != nil {
				assert.Same(t, context.Background(), p.ctx)
				assert.Same(t, context.Background(), p.Context())
			}
		})
	}
}

func TestNewPlanWithContext(t *testing.T) {
	for _, testCase := range newPlanTestCases {
		t.Run(testCase.name+" with context.Background()", func(t *testing.T) {
			p, err := NewPlanWithContext(context.Background(), testCase.method, testCase.url, testCase.body)
			testCase.asserts(t, p, err)
			if p != nil {
				assert.Same(t, context.Background(), p.ctx)
				assert.Same(t, context.Background(), p.Context())
			}
		})
		type foo struct{}
		ctx := context.WithValue(context.Background(), foo{}, "bar")
		t.Run(testCase.name+" with special context", func(t *testing.T) {
			p, err := NewPlanWithContext(ctx, testCase.method, testCase.url, testCase.body)
			testCase.asserts(t, p, err)
			if p != nil {
				assert.Same(t, ctx, p.ctx)
				assert.Same(t, ctx, p.Context())
			}
		})
		t.Run(testCase.name+" with nil context", func(t *testing.T) {
			p, err := NewPlanWithContext(nil, testCase.method, testCase.url, testCase.body)
			assert.Nil(t, p)
			assert.EqualError(t, err, nilCtxMsg)
		})
	}
}

var newPlanTestCases = []struct {
	name    string
	method  string
	url     string
	body    interface{}
	asserts func(*testing.T, *Plan, error)
}{
	{
		name:   "empty method means GET",
		method: "",
		url:    "https://foo.com",
		asserts: func(t *testing.T, p *Plan, err error) {
			assert.NoError(t, err)
			require.NotNil(t, p)
			assert.Equal(t, "GET", p.Method)
			assert.Equal(t, "https://foo.com", p.URL.String())
		},
	},
	{
		name:   "policy defaults",
		method: "GET",
		url:    "https://foo.com",
		asserts: func(t *testing.T, p *Plan, err error) {
			assert.NoError(t, err)
			require.NotNil(t, p)
			assert.Equal(t, redirect.Follow, p.Redirect)
			assert.Equal(t, DefaultMaxRedirects, p.MaxRedirects)
			assert.True(t, p.Compress)
			assert.Equal(t, time.Duration(0), p.Timeout)
			assert.Nil(t, p.Transport)
		},
	},
	{
		name:   "invalid method",
		method: "GET ",
		url:    "https://foo.com",
		asserts: func(t *testing.T, p *Plan, err error) {
			assert.Nil(t, p)
			assert.EqualError(t, err, `fetch/request: invalid method "GET "`)
		},
	},
	{
		name:   "invalid url",
		method: "GET",
		url:    "://nope",
		asserts: func(t *testing.T, p *Plan, err error) {
			assert.Nil(t, p)
			assert.Error(t, err)
		},
	},
	{
		name:   "empty port removed",
		method: "GET",
		url:    "http://foo.com:/bar",
		asserts: func(t *testing.T, p *Plan, err error) {
			assert.NoError(t, err)
			require.NotNil(t, p)
			assert.Equal(t, "foo.com", p.URL.Host)
			assert.Equal(t, "foo.com", p.Host)
		},
	},
	{
		name:   "string body buffered",
		method: "POST",
		url:    "https://foo.com",
		body:   "ham",
		asserts: func(t *testing.T, p *Plan, err error) {
			assert.NoError(t, err)
			require.NotNil(t, p)
			assert.Equal(t, []byte("ham"), p.Body)
			assert.Nil(t, p.BodyStream)
			assert.Equal(t, redirect.ReplayableBody, p.BodyKind())
		},
	},
	{
		name:   "byte slice body buffered",
		method: "POST",
		url:    "https://foo.com",
		body:   []byte("eggs"),
		asserts: func(t *testing.T, p *Plan, err error) {
			assert.NoError(t, err)
			require.NotNil(t, p)
			assert.Equal(t, []byte("eggs"), p.Body)
			assert.Equal(t, redirect.ReplayableBody, p.BodyKind())
		},
	},
	{
		name:   "reader body kept as stream",
		method: "PUT",
		url:    "https://foo.com",
		body:   strings.NewReader("spam"),
		asserts: func(t *testing.T, p *Plan, err error) {
			assert.NoError(t, err)
			require.NotNil(t, p)
			assert.Nil(t, p.Body)
			require.NotNil(t, p.BodyStream)
			assert.Equal(t, redirect.StreamBody, p.BodyKind())
			// The stream must not be drained at plan creation time.
			sr, ok := p.BodyStream.(*strings.Reader)
			require.True(t, ok)
			assert.Equal(t, 4, sr.Len())
		},
	},
	{
		name:   "nil body",
		method: "DELETE",
		url:    "https://foo.com",
		asserts: func(t *testing.T, p *Plan, err error) {
			assert.NoError(t, err)
			require.NotNil(t, p)
			assert.Nil(t, p.Body)
			assert.Nil(t, p.BodyStream)
			assert.Equal(t, redirect.NoBody, p.BodyKind())
		},
	},
	{
		name:   "unsupported body type",
		method: "POST",
		url:    "https://foo.com",
		body:   10,
		asserts: func(t *testing.T, p *Plan, err error) {
			assert.Nil(t, p)
			assert.EqualError(t, err, badBodyTypeMsg)
		},
	},
}

func TestPlan_WithContext(t *testing.T) {
	p, err := NewPlan("GET", "https://foo.com", nil)
	require.NoError(t, err)
	t.Run("nil context panics", func(t *testing.T) {
		assert.Panics(t, func() { p.WithContext(nil) })
	})
	t.Run("copies plan", func(t *testing.T) {
		type key struct{}
		ctx := context.WithValue(context.Background(), key{}, "x")
		p2 := p.WithContext(ctx)
		assert.NotSame(t, p, p2)
		assert.Same(t, ctx, p2.Context())
		assert.Same(t, context.Background(), p.Context())
		assert.Equal(t, p.URL, p2.URL)
		assert.Equal(t, p.MaxRedirects, p2.MaxRedirects)
	})
}

func TestPlan_Context(t *testing.T) {
	p := &Plan{}
	assert.Same(t, context.Background(), p.Context())
}

func TestPlan_AddCookie(t *testing.T) {
	p, err := NewPlan("GET", "https://foo.com", nil)
	require.NoError(t, err)
	p.AddCookie(&http.Cookie{Name: "a", Value: "1"})
	assert.Equal(t, "a=1", p.Header.Get("Cookie"))
	p.AddCookie(&http.Cookie{Name: "b", Value: "2"})
	assert.Equal(t, "a=1; b=2", p.Header.Get("Cookie"))
}

func TestPlan_SetBasicAuth(t *testing.T) {
	p, err := NewPlan("GET", "https://foo.com", nil)
	require.NoError(t, err)
	p.SetBasicAuth("user", "pass")
	assert.Equal(t, "Basic dXNlcjpwYXNz", p.Header.Get("Authorization"))
}

func TestPlan_ToRequest(t *testing.T) {
	t.Run("fixed body", func(t *testing.T) {
		p, err := NewPlan("POST", "https://foo.com", "hello")
		require.NoError(t, err)
		r := p.ToRequest(context.Background())
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, int64(5), r.ContentLength)
		b, err := ioutil.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.Equal(t, []byte("hello"), b)
		// GetBody must replay the same content.
		require.NotNil(t, r.GetBody)
		rc, err := r.GetBody()
		require.NoError(t, err)
		b, err = ioutil.ReadAll(rc)
		assert.NoError(t, err)
		assert.Equal(t, []byte("hello"), b)
	})
	t.Run("stream body", func(t *testing.T) {
		p, err := NewPlan("PUT", "https://foo.com", strings.NewReader("stream"))
		require.NoError(t, err)
		r := p.ToRequest(context.Background())
		assert.Equal(t, int64(-1), r.ContentLength)
		assert.Nil(t, r.GetBody)
		b, err := ioutil.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.Equal(t, []byte("stream"), b)
	})
	t.Run("no body", func(t *testing.T) {
		p, err := NewPlan("GET", "https://foo.com", nil)
		require.NoError(t, err)
		r := p.ToRequest(context.Background())
		assert.Nil(t, r.Body)
		assert.Equal(t, int64(0), r.ContentLength)
	})
}
