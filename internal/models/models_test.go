package models

import (
	"encoding/json"
	"testing"
)

func TestPlaybackSource(t *testing.T) {
	t.Run("StreamURL", func(t *testing.T) {
		tc := []struct {
			name string
			src  PlaybackSource
			want string
		}{
			{name: "local", src: LocalSource("song.mp3"), want: "/stream/song.mp3"},
			{name: "local with spaces", src: LocalSource("my song.mp3"), want: "/stream/my%20song.mp3"},
			{name: "remote", src: RemoteSource("abc123", "T", "C", ""), want: "/youtube/stream/abc123"},
			{name: "unknown kind", src: PlaybackSource{}, want: ""},
		}

		for _, c := range tc {
			t.Run(c.name, func(t *testing.T) {
				if got := c.src.StreamURL(); got != c.want {
					t.Errorf("expected %q, got %q", c.want, got)
				}
			})
		}
	})

	t.Run("Same compares by stream URL only", func(t *testing.T) {
		a := RemoteSource("abc", "Title", "Channel", "")
		b := RemoteSource("abc", "Other", "Else", "thumb")
		if !a.Same(b) {
			t.Error("expected sources with the same id to match")
		}
		if a.Same(RemoteSource("abcd", "", "", "")) {
			t.Error("expected a prefix id not to match")
		}
		if (PlaybackSource{}).Same(PlaybackSource{}) {
			t.Error("expected empty sources not to match")
		}
	})

	t.Run("display metadata", func(t *testing.T) {
		local := LocalSource("track.mp3")
		if local.DisplayTitle() != "track" {
			t.Errorf("expected extension stripped, got %q", local.DisplayTitle())
		}
		if local.DisplayArtist() != LocalArtist {
			t.Errorf("expected %q, got %q", LocalArtist, local.DisplayArtist())
		}
		if local.Thumbnail() != LocalThumbnail {
			t.Error("expected placeholder thumbnail for local files")
		}

		remote := RemoteSource("id", "", "Chan", "http://img")
		if remote.DisplayTitle() != "Unknown" {
			t.Errorf("expected Unknown title, got %q", remote.DisplayTitle())
		}
		if remote.DisplayArtist() != "Chan" || remote.Thumbnail() != "http://img" {
			t.Errorf("unexpected remote metadata %+v", remote)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		if err := LocalSource("").Validate(); err == nil {
			t.Error("expected error for empty filename")
		}
		if err := RemoteSource(" ", "", "", "").Validate(); err == nil {
			t.Error("expected error for empty id")
		}
		if err := (PlaybackSource{Kind: "vinyl"}).Validate(); err == nil {
			t.Error("expected error for unknown kind")
		}
		if err := LocalSource("a.mp3").Validate(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})
}

func TestSyncEvent(t *testing.T) {
	t.Run("wire format", func(t *testing.T) {
		ev := RemoteSource("vid", "Song", "Band", "http://t").SyncEvent(ActionPlay)
		ev.Sender = "client-1"

		data, err := json.Marshal(ev)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		want := `{"action":"play","source":"youtube","videoId":"vid","title":"Song","channel":"Band","thumbnail":"http://t","sender":"client-1"}`
		if string(data) != want {
			t.Errorf("expected %s, got %s", want, data)
		}
	})

	t.Run("bare action omits source fields", func(t *testing.T) {
		data, err := json.Marshal(SyncEvent{Action: ActionPause})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if string(data) != `{"action":"pause"}` {
			t.Errorf("unexpected payload %s", data)
		}
	})

	t.Run("PlaybackSource", func(t *testing.T) {
		src, ok := SyncEvent{Action: ActionPlay, Source: SourceLocal, File: "a.mp3"}.PlaybackSource()
		if !ok || src.Filename != "a.mp3" {
			t.Errorf("expected local source, got %+v (%v)", src, ok)
		}

		if _, ok := (SyncEvent{Action: ActionPlay, Source: SourceYouTube}).PlaybackSource(); ok {
			t.Error("expected no source without a video id")
		}

		if _, ok := (SyncEvent{Action: ActionPause}).PlaybackSource(); ok {
			t.Error("expected no source for a bare action")
		}
	})

	t.Run("Validate", func(t *testing.T) {
		if err := (SyncEvent{Action: "stop"}).Validate(); err == nil {
			t.Error("expected error for unknown action")
		}
		if err := (SyncEvent{Action: ActionPause}).Validate(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})
}
