package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// API and service errors
	ErrAPIRequest = fmt.Errorf("API request failed")
	ErrTimeout    = fmt.Errorf("operation timed out")

	// Playback errors
	ErrMediaError       = fmt.Errorf("audio error")
	ErrPlaybackRejected = fmt.Errorf("playback failed")
	ErrSuperseded       = fmt.Errorf("load superseded")
	ErrNothingLoaded    = fmt.Errorf("no audio loaded")
	ErrPlayerClosed     = fmt.Errorf("player closed")

	// Sync errors
	ErrNotConnected = fmt.Errorf("sync channel not connected")
	ErrSendBuffer   = fmt.Errorf("sync send buffer full")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
