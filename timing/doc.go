// Copyright 2021 The fetch Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package timing captures per-phase latency measurements (DNS lookup,
// TCP connection, TLS handshake, first response byte, total) for a
// single fetch, using the trace hooks exposed by net/http/httptrace.
//
// The timings snapshot is attached to every fetch result and to every
// fetch error, so latency can be diagnosed on failure paths too.
package timing
