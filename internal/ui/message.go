package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/mstream/internal/models"
	"github.com/desertthunder/mstream/internal/player"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgLocalFetched MsgKind = iota
	MsgSearchResults
	MsgPlaylistsFetched
	MsgPlayResult
	MsgControlResult
	MsgNotification
	MsgTick
)

type localFetched struct {
	files []string
	err   error
}

type searchResults struct {
	query  string
	videos []models.Video
	err    error
}

type playlistsFetched struct {
	playlists []models.Playlist
	err       error
}

type playResult struct {
	source models.PlaybackSource
	err    error
}

// localFetchedMsg is the constructor for [MsgLocalFetched]
func localFetchedMsg(files []string, err error) Msg {
	return Msg{kind: MsgLocalFetched, data: localFetched{files, err}}
}

// searchResultsMsg is the constructor for [MsgSearchResults]
func searchResultsMsg(query string, videos []models.Video, err error) Msg {
	return Msg{kind: MsgSearchResults, data: searchResults{query, videos, err}}
}

// playlistsFetchedMsg is the constructor for [MsgPlaylistsFetched]
func playlistsFetchedMsg(playlists []models.Playlist, err error) Msg {
	return Msg{kind: MsgPlaylistsFetched, data: playlistsFetched{playlists, err}}
}

// playResultMsg is the constructor for [MsgPlayResult]
func playResultMsg(src models.PlaybackSource, err error) Msg {
	return Msg{kind: MsgPlayResult, data: playResult{src, err}}
}

// controlResultMsg is the constructor for [MsgControlResult]
func controlResultMsg(err error) Msg {
	return Msg{kind: MsgControlResult, data: err}
}

// notificationMsg is the constructor for [MsgNotification]
func notificationMsg(n player.Notification) Msg {
	return Msg{kind: MsgNotification, data: n}
}

// tickMsg is the constructor for [MsgTick]
func tickMsg(t time.Time) Msg {
	return Msg{kind: MsgTick, data: t}
}
