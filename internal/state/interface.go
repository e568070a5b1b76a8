// internal/state/interface.go
package state

// Store is a key/value byte cache. Values are overwritten in place and
// never expire. Get returns nil, nil for a missing key.
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// Keys used by the playback engine.
const (
	KeyQueue     = "queue"
	KeyCurrent   = "current"
	KeyProgress  = "progress"
	KeyFavorites = "favorites"

	KeyRadioType    = "radio_type"
	KeyRadioID      = "radio_id"
	KeyRadioSession = "radio_session"
	KeyRadioCookie  = "radio_cookie"
)

// Interface defines the state manager contract for dependency injection and testing.
type Interface interface {
	Store
	AddPendingScrobble(s PendingScrobble) error
	GetPendingScrobbles() ([]PendingScrobble, error)
	DeletePendingScrobble(id int64) error
	UpdatePendingScrobbleAttempt(id int64, errMsg string) error
	Close() error
}

// Verify Manager implements Interface at compile time.
var _ Interface = (*Manager)(nil)
