// Copyright 2021 The fetch Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package redirect contains the redirect policy used by the fetch
// client: the redirect Mode carried on a request plan, and the
// Decide function which evaluates one HTTP response against that
// policy and produces a tagged Decision (treat as terminal, rewrite
// and return, reject, or follow).
//
// Keeping the decision logic here, as a pure function over an Input
// struct, lets the policy be tested in isolation from the transport
// and the client's dispatch loop.
package redirect
