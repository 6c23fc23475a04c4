// Copyright 2021 The fetch Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvents(t *testing.T) {
	assert.Len(t, eventNames, numEvents)
	assert.Len(t, Events(), numEvents)
	events := Events()
	assert.Equal(t, BeforeFetchStart, events[BeforeFetchStart])
	assert.Equal(t, BeforeHop, events[BeforeHop])
	assert.Equal(t, AfterHop, events[AfterHop])
	assert.Equal(t, AfterRedirect, events[AfterRedirect])
	assert.Equal(t, AfterFetchEnd, events[AfterFetchEnd])
}

func TestEvent_Name(t *testing.T) {
	assert.Equal(t, "BeforeFetchStart", BeforeFetchStart.Name())
	assert.Equal(t, "BeforeHop", BeforeHop.Name())
	assert.Equal(t, "AfterHop", AfterHop.Name())
	assert.Equal(t, "AfterRedirect", AfterRedirect.Name())
	assert.Equal(t, "AfterFetchEnd", AfterFetchEnd.Name())
}
