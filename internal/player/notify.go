package player

import "time"

// Level is the severity of a [Notification].
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	}
	return "info"
}

// Notification is a transient user-facing message.
type Notification struct {
	Level   Level
	Message string
	At      time.Time
}

// Notifier receives notifications. Implementations must not block.
type Notifier interface {
	Notify(Notification)
}

// NotifierFunc adapts a function to [Notifier].
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

// ChannelNotifier forwards notifications to ch, dropping them when ch is full.
func ChannelNotifier(ch chan<- Notification) Notifier {
	return NotifierFunc(func(n Notification) {
		select {
		case ch <- n:
		default:
		}
	})
}
