// Package server hosts the sync relay: a small HTTP service whose websocket endpoint rebroadcasts
// every "control" event to the other connected clients.
//
// # Handlers and middleware
//
// A [Handler] is an [http.Handler] that also reports the routes it serves, so a handler can register
// all of its paths at once. [Middleware] wraps handlers in the usual func(http.Handler) http.Handler
// shape; [Chain] applies them in reverse order (last added executes first).
//
// # Relay
//
// [Hub] upgrades /ws requests, tracks one peer per connection and forwards control frames verbatim to
// every peer but the sender. It does not interpret playback state; last applied wins on the clients.
//
// [NewRouter] mounts the hub and a /health probe on a gin engine and wraps it with CORS and request
// logging. [Serve] runs the result until its context is cancelled.
package server
