// Package watch reloads the scenario file when it changes on disk.
//
// The watcher observes the file's directory rather than the file itself so
// that editors which save by renaming a temporary file are picked up. Events
// for other files in the directory are ignored, and bursts of events are
// collapsed by a Debouncer before the reload runs.
//
// A reload that fails to parse, or whose state the bank rejects, is logged
// and the bank keeps serving its current state.
package watch
