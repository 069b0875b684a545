package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/mstream/internal/models"
)

var (
	_ list.Item = localItem{}
	_ list.Item = videoItem{}
	_ list.Item = playlistItem{}
)

// localItem wraps a backend MP3 filename to implement [list.Item].
type localItem struct {
	source models.PlaybackSource
}

func (i localItem) FilterValue() string { return i.source.Filename }
func (i localItem) Title() string       { return i.source.DisplayTitle() }
func (i localItem) Description() string { return i.source.Filename }

// videoItem wraps [models.Video] to implement [list.Item].
type videoItem struct {
	video models.Video
}

func (i videoItem) FilterValue() string { return i.video.Title }
func (i videoItem) Title() string       { return i.video.Title }
func (i videoItem) Description() string { return i.video.Channel }

// playlistItem wraps [models.Playlist] to implement [list.Item].
type playlistItem struct {
	playlist models.Playlist
}

func (i playlistItem) FilterValue() string { return i.playlist.Name }
func (i playlistItem) Title() string       { return i.playlist.Name }
func (i playlistItem) Description() string { return fmt.Sprintf("%d songs", i.playlist.Count) }

// source returns the playable source behind a list item, if any.
func source(item list.Item) (models.PlaybackSource, bool) {
	switch it := item.(type) {
	case localItem:
		return it.source, true
	case videoItem:
		return it.video.Source(), true
	}
	return models.PlaybackSource{}, false
}

func localItems(files []string) []list.Item {
	items := make([]list.Item, len(files))
	for i, f := range files {
		items[i] = localItem{source: models.LocalSource(f)}
	}
	return items
}

func videoItems(videos []models.Video) []list.Item {
	items := make([]list.Item, len(videos))
	for i, v := range videos {
		items[i] = videoItem{video: v}
	}
	return items
}

func playlistItems(playlists []models.Playlist) []list.Item {
	items := make([]list.Item, len(playlists))
	for i, p := range playlists {
		items[i] = playlistItem{playlist: p}
	}
	return items
}
