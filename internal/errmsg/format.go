// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import "fmt"

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Queue operations
	OpQueueLoad Op = "load queue"
	OpQueueSave Op = "save queue"

	// Playback operations
	OpPlaybackStart   Op = "start playback"
	OpPlaybackSeek    Op = "seek"
	OpPlaybackRestore Op = "restore playback position"

	// Radio operations
	OpRadioStart Op = "start radio"
	OpRadioFetch Op = "fetch next radio track"

	// Favorites
	OpFavoritesLoad Op = "load favorites"

	// Listening history
	OpScrobble  Op = "scrobble"
	OpListening Op = "record listening"

	// Downloads
	OpPin Op = "pin track"

	// Initialization
	OpInitialize Op = "initialize application"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}
