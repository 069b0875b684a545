// package models defines the data model for the music stream client
package models

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// SourceKind tags a [PlaybackSource].
type SourceKind string

const (
	SourceLocal   SourceKind = "local"
	SourceYouTube SourceKind = "youtube"
)

// LocalArtist is the artist line shown for local files.
const LocalArtist = "Local File"

// LocalThumbnail is the placeholder artwork for local files.
const LocalThumbnail = "data:image/svg+xml,%3Csvg xmlns='http://www.w3.org/2000/svg' viewBox='0 0 24 24'%3E%3Cpath d='M12 3v10.55A4 4 0 1 0 14 17V7h4V3h-6z'/%3E%3C/svg%3E"

// PlaybackSource is either a local file (Filename) or a remote video (ID plus display metadata).
type PlaybackSource struct {
	Kind         SourceKind `json:"kind"`
	Filename     string     `json:"filename,omitempty"`
	ID           string     `json:"id,omitempty"`
	Title        string     `json:"title,omitempty"`
	Channel      string     `json:"channel,omitempty"`
	ThumbnailURL string     `json:"thumbnail,omitempty"`
}

// LocalSource builds a local file source.
func LocalSource(filename string) PlaybackSource {
	return PlaybackSource{Kind: SourceLocal, Filename: filename}
}

// RemoteSource builds a remote source. An empty title becomes "Unknown".
func RemoteSource(id, title, channel, thumbnail string) PlaybackSource {
	if title == "" {
		title = "Unknown"
	}
	return PlaybackSource{Kind: SourceYouTube, ID: id, Title: title, Channel: channel, ThumbnailURL: thumbnail}
}

// StreamURL is the canonical backend path for the source. It is the source's identity:
// two sources are the same track exactly when their stream URLs are equal.
func (s PlaybackSource) StreamURL() string {
	switch s.Kind {
	case SourceLocal:
		return "/stream/" + url.PathEscape(s.Filename)
	case SourceYouTube:
		return "/youtube/stream/" + url.PathEscape(s.ID)
	}
	return ""
}

// Same reports whether s and o resolve to the same stream.
func (s PlaybackSource) Same(o PlaybackSource) bool {
	return s.StreamURL() != "" && s.StreamURL() == o.StreamURL()
}

// Validate checks the source carries its identifying field.
func (s PlaybackSource) Validate() error {
	switch s.Kind {
	case SourceLocal:
		if strings.TrimSpace(s.Filename) == "" {
			return fmt.Errorf("local source requires a filename")
		}
	case SourceYouTube:
		if strings.TrimSpace(s.ID) == "" {
			return fmt.Errorf("youtube source requires a video id")
		}
	default:
		return fmt.Errorf("unknown source kind %q", s.Kind)
	}
	return nil
}

// DisplayTitle is the title shown in the now-playing area.
func (s PlaybackSource) DisplayTitle() string {
	if s.Kind == SourceLocal {
		return strings.TrimSuffix(s.Filename, ".mp3")
	}
	return s.Title
}

// DisplayArtist is the artist line shown in the now-playing area.
func (s PlaybackSource) DisplayArtist() string {
	if s.Kind == SourceLocal {
		return LocalArtist
	}
	return s.Channel
}

// Thumbnail returns the artwork URL for the source.
func (s PlaybackSource) Thumbnail() string {
	if s.Kind == SourceLocal {
		return LocalThumbnail
	}
	return s.ThumbnailURL
}

// SyncEvent builds the wire message announcing action for s.
func (s PlaybackSource) SyncEvent(action Action) SyncEvent {
	ev := SyncEvent{Action: action, Source: s.Kind}
	switch s.Kind {
	case SourceLocal:
		ev.File = s.Filename
	case SourceYouTube:
		ev.VideoID = s.ID
		ev.Title = s.Title
		ev.Channel = s.Channel
		ev.Thumbnail = s.ThumbnailURL
	}
	return ev
}

// Action is a mirrored playback intent.
type Action string

const (
	ActionPlay  Action = "play"
	ActionPause Action = "pause"
)

// SyncEvent is the payload of the "control" event. Source fields are optional: a bare
// {"action":"pause"} applies to whatever is playing.
type SyncEvent struct {
	Action    Action     `json:"action"`
	Source    SourceKind `json:"source,omitempty"`
	File      string     `json:"file,omitempty"`
	VideoID   string     `json:"videoId,omitempty"`
	Title     string     `json:"title,omitempty"`
	Channel   string     `json:"channel,omitempty"`
	Thumbnail string     `json:"thumbnail,omitempty"`
	Sender    string     `json:"sender,omitempty"`
}

// Validate rejects unknown actions.
func (e SyncEvent) Validate() error {
	switch e.Action {
	case ActionPlay, ActionPause:
		return nil
	}
	return fmt.Errorf("unknown sync action %q", e.Action)
}

// PlaybackSource extracts the source the event refers to, if it names one.
func (e SyncEvent) PlaybackSource() (PlaybackSource, bool) {
	switch {
	case e.Source == SourceLocal && e.File != "":
		return LocalSource(e.File), true
	case e.Source == SourceYouTube && e.VideoID != "":
		return RemoteSource(e.VideoID, e.Title, e.Channel, e.Thumbnail), true
	}
	return PlaybackSource{}, false
}

// Video is a remote search result.
type Video struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Channel     string `json:"channel"`
	Thumbnail   string `json:"thumbnail"`
	Description string `json:"description"`
}

// Source converts the result into a playable source.
func (v Video) Source() PlaybackSource {
	return RemoteSource(v.ID, v.Title, v.Channel, v.Thumbnail)
}

// Playlist is a playlist summary as listed by the backend.
type Playlist struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Setting is a persisted client preference.
type Setting struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// Validate checks the setting has a key.
func (s Setting) Validate() error {
	if strings.TrimSpace(s.Key) == "" {
		return fmt.Errorf("setting key is required")
	}
	return nil
}
