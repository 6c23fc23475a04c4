// Copyright 2021 The fetch Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package timing

import (
	"context"
	"net/http/httptrace"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_CaptureOnce(t *testing.T) {
	c := NewCollector(time.Now())
	ctx := c.Attach(context.Background())
	trace := httptrace.ContextClientTrace(ctx)
	require.NotNil(t, trace)

	trace.GotFirstResponseByte()
	first := c.Snapshot().FirstByte
	assert.Greater(t, first, time.Duration(0))

	time.Sleep(2 * time.Millisecond)
	trace.GotFirstResponseByte()
	assert.Equal(t, first, c.Snapshot().FirstByte, "later events must not overwrite")
}

func TestCollector_PhaseAbsence(t *testing.T) {
	c := NewCollector(time.Now())
	ctx := c.Attach(context.Background())
	trace := httptrace.ContextClientTrace(ctx)

	trace.DNSDone(httptrace.DNSDoneInfo{})
	trace.ConnectDone("tcp", "127.0.0.1:80", nil)

	s := c.Snapshot()
	assert.Greater(t, s.DNSLookup, time.Duration(0))
	assert.Greater(t, s.TCPConnection, time.Duration(0))
	assert.Equal(t, time.Duration(0), s.TLSHandshake, "no TLS on plain HTTP")
	assert.Equal(t, time.Duration(0), s.FirstByte)
	assert.Equal(t, time.Duration(0), s.Total)
}

func TestCollector_FailedPhaseNotCaptured(t *testing.T) {
	c := NewCollector(time.Now())
	ctx := c.Attach(context.Background())
	trace := httptrace.ContextClientTrace(ctx)

	trace.ConnectDone("tcp", "127.0.0.1:80", assert.AnError)
	assert.Equal(t, time.Duration(0), c.Snapshot().TCPConnection)
}

func TestCollector_Settle(t *testing.T) {
	c := NewCollector(time.Now())
	c.Settle()
	total := c.Snapshot().Total
	assert.Greater(t, total, time.Duration(0))

	time.Sleep(2 * time.Millisecond)
	c.Settle()
	assert.Equal(t, total, c.Snapshot().Total, "Settle is first-wins")
}

func TestCollector_Ordering(t *testing.T) {
	// Fields are assigned in event order, so a snapshot's set fields
	// are monotonically non-decreasing in declaration order.
	c := NewCollector(time.Now())
	ctx := c.Attach(context.Background())
	trace := httptrace.ContextClientTrace(ctx)

	trace.DNSDone(httptrace.DNSDoneInfo{})
	trace.ConnectDone("tcp", "127.0.0.1:80", nil)
	trace.GotFirstResponseByte()
	c.Settle()

	s := c.Snapshot()
	assert.LessOrEqual(t, s.DNSLookup, s.TCPConnection)
	assert.LessOrEqual(t, s.TCPConnection, s.FirstByte)
	assert.LessOrEqual(t, s.FirstByte, s.Total)
}
