// Package realtime is the client side of the sync channel: a websocket connection exchanging
// {event, data} JSON envelopes with the relay.
//
// Playback intents travel as the "control" event with a [models.SyncEvent] payload. [Client]
// implements the player's broadcaster, so a session can publish through it directly, and dispatches
// inbound events to handlers registered with [Client.On].
//
// The connection is re-established after drops, paced by a rate limiter. Emits made while
// disconnected fail with [shared.ErrNotConnected] instead of being queued for later.
package realtime
