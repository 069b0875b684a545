// Package ui implements the interactive terminal player using bubbletea's Elm architecture.
//
// The TUI has three sections, switched with tab:
//  1. [LocalView] : MP3 files served by the backend
//  2. [SearchView] : YouTube search results for a query typed after "/"
//  3. [PlaylistsView] : Playlist summaries
//
// Selecting an item asks the playback session to play it; the footer shows the now-playing track,
// position and volume, refreshed on a ticker from [player.Session.Snapshot]. Session notifications
// arrive over a channel and are shown as short-lived toasts.
//
// Keyboard navigation uses vim-style bindings with contextual help displayed via charmbracelet/bubbles/help.
package ui
