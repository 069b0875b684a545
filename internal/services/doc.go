// Package services implements the HTTP client for the MusicStream backend.
//
// [BackendService] covers every endpoint the player consumes:
//   - GET /youtube/search : remote search results as [models.Video]
//   - GET /mp3-list : local file names
//   - GET /playlists : playlist summaries as [models.Playlist]
//   - HEAD /youtube/stream/{id} : proxy stream availability probe
//   - GET /youtube/audio/{id} : direct audio URL resolution
//
// Resolved audio URLs that point at an HLS master playlist are narrowed to their first variant.
//
// # Error Handling
//
// Every failure (transport, non-2xx status, malformed or error payload) is returned as a [*FetchError],
// which matches [shared.ErrAPIRequest] under [errors.Is].
package services
