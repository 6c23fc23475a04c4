// Copyright 2021 The fetch Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package fetch provides a single-call HTTP fetch client with automatic
redirect chasing, transparent content decoding, cancellation and
timeout, and per-phase latency instrumentation, within a simple and
familiar interface.

Create a Client to begin making requests.

	client := &fetch.Client{}
	resp, err := client.Get("https://www.example.com")
	...
	body, err := resp.Text()
	...
	resp, err := client.Post("https://www.example.com/upload",
		"application/json", &buf)

For control over redirect behavior, decoding, and timeouts, create a
plan with package request and adjust its policy fields:

	p, err := request.NewPlan("GET", "https://www.example.com", nil)
	...
	p.Redirect = redirect.Manual
	p.MaxRedirects = 5
	p.Timeout = 10 * time.Second
	resp, err := client.Do(p)

For control over how individual HTTP exchanges are performed
(connection pooling, proxies, TLS), supply a custom transport:

	client := &fetch.Client{
		Transport: &http.Transport{
			..., // See package "net/http" for detailed documentation
		},
	}

To hook into the fine-grained details of the client's dispatch logic,
install a handler into the appropriate handler chain:

	log := log.New(os.Stdout, "", log.LstdFlags)
	handlers := &fetch.HandlerGroup{}
	handlers.PushBack(fetch.BeforeHop, fetch.HandlerFunc(
		func(_ fetch.Event, e *request.Execution) {
			log.Printf("Hop %d to %s", e.Hop, e.Request.URL.String())
		})
	)
	client := &fetch.Client{
		Handlers: handlers,
	}

Package fetch provides basic interfaces for each method of the client
(Doer, Getter, Header, Poster, FormPoster, and IdleCloser); a combined
interface that composes all the basic methods (Executor); and utility
functions for working with a Doer (Inflate, Get, Head, Post, and
PostForm).
*/
package fetch
