// Package models defines the domain entities shared by the player, the sync channel and the backend client.
//
// Playback:
//   - [PlaybackSource] : what is (or should be) playing, local file or remote video
//   - [SyncEvent] : the play/pause message mirrored between clients
//
// Backend listings:
//   - [Video] : a remote search result
//   - [Playlist] : a playlist summary
//
// Persistence:
//   - [Setting] : a stored client preference
package models
