// Copyright 2021 The fetch Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package loghandler adapts a zerolog logger into a fetch event
// handler, so the lifecycle of every fetch can be traced through
// structured logs.
//
// Install the handler on the events you care about, or on all of them:
//
//	zl := zerolog.New(os.Stderr)
//	handlers := &fetch.HandlerGroup{}
//	loghandler.Install(handlers, &zl)
//	client := &fetch.Client{Handlers: handlers}
package loghandler

import (
	"github.com/rs/zerolog"

	"github.com/gogama/fetch"
	"github.com/gogama/fetch/request"
)

type handler struct {
	logger *zerolog.Logger
}

// New turns a *zerolog.Logger into a fetch.Handler which logs each
// event it receives at debug level, with the hop number, method, URL,
// status code, and error attached as fields where available.
func New(l *zerolog.Logger) fetch.Handler {
	if l == nil {
		panic("loghandler: nil logger")
	}
	return &handler{logger: l}
}

// Install registers a logging handler on every fetch event in g.
func Install(g *fetch.HandlerGroup, l *zerolog.Logger) {
	h := New(l)
	for _, evt := range fetch.Events() {
		g.PushBack(evt, h)
	}
}

func (h *handler) Handle(evt fetch.Event, e *request.Execution) {
	ev := h.logger.Debug().
		Str("event", evt.Name()).
		Int("hop", e.Hop).
		Int("redirects", e.Redirects)
	if e.Request != nil {
		ev = ev.Str("method", e.Request.Method).
			Stringer("url", e.Request.URL)
	}
	if e.Response != nil {
		ev = ev.Int("status", e.Response.StatusCode)
	}
	if e.Err != nil {
		ev = ev.Err(e.Err)
	}
	if e.Ended() {
		ev = ev.Dur("duration", e.Duration())
	}
	ev.Msg("fetch")
}
