// Package player coordinates playback: it decides whether a play request needs a reload, runs loads
// through [media.Loader], keeps the session [State], and mirrors local intents to other clients.
//
// A [Session] is driven by a single goroutine ([Session.Run]) consuming two streams: commands (user
// actions and inbound sync events) and media lifecycle events from the element. Loads run on their
// own goroutine and report back tagged with a generation number; a result whose generation is no
// longer current is discarded, so a superseded load can never overwrite a newer one.
package player
