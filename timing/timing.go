// Copyright 2021 The fetch Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package timing

import (
	"context"
	"crypto/tls"
	"net/http/httptrace"
	"sync"
	"time"
)

// Timings records the latency of the phases of a fetch, each measured
// as an offset from the start of the fetch. A zero field means the
// corresponding phase never occurred, or never completed: a request
// over plain HTTP has no TLS handshake, a request that fails in DNS
// resolution has no connection time, and so on.
//
// Each field is captured at most once per fetch. When a fetch involves
// redirects, the connection phases describe the first hop that
// established a connection and FirstByte describes the first response
// byte of the whole chain, so the fields remain monotonically
// non-decreasing in the order they are declared.
type Timings struct {
	// DNSLookup is the offset at which name resolution completed.
	DNSLookup time.Duration

	// TCPConnection is the offset at which the TCP connection was
	// established.
	TCPConnection time.Duration

	// TLSHandshake is the offset at which the TLS handshake completed.
	// It is zero for plain HTTP requests.
	TLSHandshake time.Duration

	// FirstByte is the offset at which the first response byte was
	// received.
	FirstByte time.Duration

	// Total is the offset at which the fetch settled, successfully or
	// not. It is set exactly once, when the result or error is
	// produced.
	Total time.Duration
}

// A Collector captures Timings for a single fetch. Its methods may be
// called concurrently: the transport delivers trace callbacks from its
// own goroutines while the fetch logic runs on the caller's.
//
// Every field is written at most once; later events for an already
// captured phase are ignored, so connection reuse across redirect hops
// does not overwrite the timings of the hop that actually dialed.
type Collector struct {
	start time.Time

	mu       sync.Mutex
	timings  Timings
	totalSet bool
}

// NewCollector returns a Collector measuring offsets from start.
func NewCollector(start time.Time) *Collector {
	return &Collector{start: start}
}

// Attach returns a copy of ctx carrying an httptrace.ClientTrace that
// populates the collector as socket lifecycle milestones occur. The
// returned context should be used for every request attempt in the
// fetch.
func (c *Collector) Attach(ctx context.Context) context.Context {
	trace := &httptrace.ClientTrace{
		DNSDone: func(httptrace.DNSDoneInfo) {
			c.capture(&c.timings.DNSLookup)
		},
		ConnectDone: func(_, _ string, err error) {
			if err == nil {
				c.capture(&c.timings.TCPConnection)
			}
		},
		TLSHandshakeDone: func(_ tls.ConnectionState, err error) {
			if err == nil {
				c.capture(&c.timings.TLSHandshake)
			}
		},
		GotFirstResponseByte: func() {
			c.capture(&c.timings.FirstByte)
		},
	}
	return httptrace.WithClientTrace(ctx, trace)
}

// Settle captures the Total field. Only the first call has any effect.
func (c *Collector) Settle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.totalSet {
		c.timings.Total = time.Since(c.start)
		c.totalSet = true
	}
}

// Snapshot returns a copy of the timings captured so far.
func (c *Collector) Snapshot() Timings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timings
}

func (c *Collector) capture(d *time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if *d == 0 {
		*d = time.Since(c.start)
	}
}
