package player

import (
	"time"

	"github.com/desertthunder/mstream/internal/models"
	"github.com/samber/mo"
)

// State is a snapshot of the playback session.
type State struct {
	Source      mo.Option[models.PlaybackSource]
	StreamURL   string
	Playing     bool
	Loading     bool
	CurrentTime time.Duration
	Duration    time.Duration
	Volume      float64
	Muted       bool
}

// Progress is the played fraction of the current track, 0 when the duration is unknown.
func (s State) Progress() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return min(float64(s.CurrentTime)/float64(s.Duration), 1)
}

// Title is the now-playing title, empty when nothing is loaded.
func (s State) Title() string {
	if src, ok := s.Source.Get(); ok {
		return src.DisplayTitle()
	}
	return ""
}

// Artist is the now-playing artist line, empty when nothing is loaded.
func (s State) Artist() string {
	if src, ok := s.Source.Get(); ok {
		return src.DisplayArtist()
	}
	return ""
}
