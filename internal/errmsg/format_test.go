//nolint:goconst // test cases intentionally repeat strings for readability
package errmsg

import (
	"errors"
	"testing"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		op       Op
		err      error
		expected string
	}{
		{
			name:     "nil error returns empty string",
			op:       OpQueueSave,
			err:      nil,
			expected: "",
		},
		{
			name:     "formats error with operation",
			op:       OpQueueSave,
			err:      errors.New("file not found"),
			expected: "Failed to save queue: file not found",
		},
		{
			name:     "queue load operation",
			op:       OpQueueLoad,
			err:      errors.New("permission denied"),
			expected: "Failed to load queue: permission denied",
		},
		{
			name:     "radio operation",
			op:       OpRadioFetch,
			err:      errors.New("network error"),
			expected: "Failed to fetch next radio track: network error",
		},
		{
			name:     "pin operation",
			op:       OpPin,
			err:      errors.New("no download manager"),
			expected: "Failed to pin track: no download manager",
		},
		{
			name:     "playback operation",
			op:       OpPlaybackStart,
			err:      errors.New("no audio device"),
			expected: "Failed to start playback: no audio device",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Format(tt.op, tt.err)
			if result != tt.expected {
				t.Errorf("Format(%q, %v) = %q, want %q", tt.op, tt.err, result, tt.expected)
			}
		})
	}
}

func TestFormatWith(t *testing.T) {
	tests := []struct {
		name     string
		op       Op
		context  string
		err      error
		expected string
	}{
		{
			name:     "nil error returns empty string",
			op:       OpRadioStart,
			context:  "artist",
			err:      nil,
			expected: "",
		},
		{
			name:     "formats error with context",
			op:       OpRadioStart,
			context:  "artist",
			err:      errors.New("unexpected status 404"),
			expected: "Failed to start radio 'artist': unexpected status 404",
		},
		{
			name:     "empty context falls back to Format",
			op:       OpRadioStart,
			context:  "",
			err:      errors.New("unexpected status 404"),
			expected: "Failed to start radio: unexpected status 404",
		},
		{
			name:     "scrobble with track context",
			op:       OpScrobble,
			context:  "Song Title",
			err:      errors.New("invalid session key"),
			expected: "Failed to scrobble 'Song Title': invalid session key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatWith(tt.op, tt.context, tt.err)
			if result != tt.expected {
				t.Errorf("FormatWith(%q, %q, %v) = %q, want %q", tt.op, tt.context, tt.err, result, tt.expected)
			}
		})
	}
}

func TestOpConstants(t *testing.T) {
	// Verify that Op constants are non-empty and produce valid messages
	ops := []Op{
		OpQueueLoad, OpQueueSave,
		OpPlaybackStart, OpPlaybackSeek, OpPlaybackRestore,
		OpRadioStart, OpRadioFetch,
		OpFavoritesLoad,
		OpScrobble, OpListening,
		OpPin,
		OpInitialize,
	}

	testErr := errors.New("test error")

	for _, op := range ops {
		t.Run(string(op), func(t *testing.T) {
			if op == "" {
				t.Error("Op constant should not be empty")
			}

			result := Format(op, testErr)
			if result == "" {
				t.Error("Format should return non-empty string for non-nil error")
			}

			// Verify the format includes the operation
			expected := "Failed to " + string(op) + ": test error"
			if result != expected {
				t.Errorf("Format = %q, want %q", result, expected)
			}
		})
	}
}
