// Package media wraps the audio engine behind a small element-like API and implements the one-shot
// load controller on top of it.
//
// # Element
//
// [Element] mirrors the controls of an audio element: a source URL, load/play/pause/seek, volume and
// mute, plus a lifecycle event stream. Every [Event] carries the source URL that was current when it
// was produced so consumers can discard events belonging to an older load.
//
// [MPV] is the production element: it drives an mpv process over its JSON IPC socket and maps mpv
// events (start-file, file-loaded, end-file, property changes) onto [Event] values.
//
// # Loader
//
// [Loader.LoadAndPlay] assigns a source, triggers a load and resolves exactly once with the first of
// ready (then play), error, or a 30 second timeout. See [LoadError].
package media
