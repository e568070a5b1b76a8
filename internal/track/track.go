// Package track defines the catalog track model shared by the queue, the
// radio session manager and the bus vocabulary.
package track

import (
	"strings"
	"time"
)

// Upload is one streamable variant of a track.
type Upload struct {
	ListenURL string `json:"listen_url"`
	Duration  int    `json:"duration"` // seconds
	Bitrate   int    `json:"bitrate"`
	MimeType  string `json:"mimetype,omitempty"`
}

// Length returns the upload duration as a time.Duration.
func (u Upload) Length() time.Duration {
	return time.Duration(u.Duration) * time.Second
}

// Quality selects which upload variant is streamed.
type Quality int

const (
	QualityMaxBitrate Quality = iota
	QualityMinBitrate
)

// ParseQuality maps a config value to a Quality. Unknown values yield
// QualityMaxBitrate.
func ParseQuality(s string) Quality {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "min-bitrate", "min":
		return QualityMinBitrate
	default:
		return QualityMaxBitrate
	}
}

// String returns the config spelling of the quality.
func (q Quality) String() string {
	if q == QualityMinBitrate {
		return "min-bitrate"
	}
	return "max-bitrate"
}

// Track is a playable catalog entry.
//
// Favorite, CachedLocally, Downloaded and Current are presentation flags
// attached to an in-memory copy. They are not part of the identity: two
// tracks are the same track iff their IDs match.
type Track struct {
	ID       int      `json:"id"`
	Title    string   `json:"title"`
	Artist   string   `json:"artist"`
	Album    string   `json:"album"`
	CoverURL string   `json:"cover_url,omitempty"`
	Uploads  []Upload `json:"uploads"`

	Favorite      bool `json:"-"`
	CachedLocally bool `json:"-"`
	Downloaded    bool `json:"-"`
	Current       bool `json:"-"`
}

// Same reports whether t and other identify the same track.
func (t Track) Same(other Track) bool {
	return t.ID == other.ID
}

// BestUpload returns the upload matching the quality preference.
// Returns false if the track has no uploads.
func (t Track) BestUpload(q Quality) (Upload, bool) {
	if len(t.Uploads) == 0 {
		return Upload{}, false
	}
	best := t.Uploads[0]
	for _, u := range t.Uploads[1:] {
		switch q {
		case QualityMinBitrate:
			if u.Bitrate < best.Bitrate {
				best = u
			}
		default:
			if u.Bitrate > best.Bitrate {
				best = u
			}
		}
	}
	return best, true
}

// Duration returns the duration of the upload selected by q, or 0.
func (t Track) Duration(q Quality) time.Duration {
	u, ok := t.BestUpload(q)
	if !ok {
		return 0
	}
	return u.Length()
}

// IndexOf returns the position of the track with the given id, or -1.
func IndexOf(tracks []Track, id int) int {
	for i := range tracks {
		if tracks[i].ID == id {
			return i
		}
	}
	return -1
}

// IDs returns the ids of tracks in order.
func IDs(tracks []Track) []int {
	ids := make([]int, len(tracks))
	for i := range tracks {
		ids[i] = tracks[i].ID
	}
	return ids
}
