package radio

import (
	"strconv"

	"github.com/rs/zerolog"

	"github.com/llehouerou/undertow/internal/bus"
	"github.com/llehouerou/undertow/internal/pod"
	"github.com/llehouerou/undertow/internal/state"
)

// Session is an active radio: what was asked for and the pod session
// serving it.
type Session struct {
	Spec bus.RadioSpec
	Pod  pod.Session
}

var sessionKeys = []string{
	state.KeyRadioType,
	state.KeyRadioID,
	state.KeyRadioSession,
	state.KeyRadioCookie,
}

// loadSession reads a persisted session. Missing or unreadable values
// mean there is none.
func loadSession(store state.Store) (Session, bool) {
	get := func(key string) (string, bool) {
		v, err := store.Get(key)
		if err != nil || v == nil {
			return "", false
		}
		return string(v), true
	}

	typ, ok := get(state.KeyRadioType)
	if !ok || typ == "" {
		return Session{}, false
	}
	rawID, ok := get(state.KeyRadioSession)
	if !ok {
		return Session{}, false
	}
	id, err := strconv.Atoi(rawID)
	if err != nil {
		return Session{}, false
	}
	related, _ := get(state.KeyRadioID)
	cookie, _ := get(state.KeyRadioCookie)

	return Session{
		Spec: bus.RadioSpec{Type: typ, RelatedObjectID: related},
		Pod:  pod.Session{ID: id, Cookie: cookie},
	}, true
}

func saveSession(store state.Store, s Session, logger zerolog.Logger) {
	values := map[string]string{
		state.KeyRadioType:    s.Spec.Type,
		state.KeyRadioID:      s.Spec.RelatedObjectID,
		state.KeyRadioSession: strconv.Itoa(s.Pod.ID),
		state.KeyRadioCookie:  s.Pod.Cookie,
	}
	for key, v := range values {
		if err := store.Set(key, []byte(v)); err != nil {
			logger.Debug().Err(err).Str("key", key).Msg("persist radio session")
		}
	}
}
