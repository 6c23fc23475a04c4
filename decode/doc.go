// Copyright 2021 The fetch Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package decode selects and applies the content decoding transform
// for a response body: identity, gzip, or deflate (zlib-wrapped or
// raw, distinguished by a first-byte heuristic). Unrecognized
// encodings pass through rather than failing the request.
package decode
