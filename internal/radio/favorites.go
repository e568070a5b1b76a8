package radio

import (
	"context"
	"encoding/json"
	"time"

	"github.com/llehouerou/undertow/internal/errmsg"
	"github.com/llehouerou/undertow/internal/state"
)

// FavoritesTTL is how long a fetched favorite set is considered fresh.
const FavoritesTTL = 24 * time.Hour

type favoriteSet struct {
	IDs       []int `json:"ids"`
	FetchedAt int64 `json:"fetched_at"`

	lookup map[int]struct{}
}

func (f *favoriteSet) index() {
	f.lookup = make(map[int]struct{}, len(f.IDs))
	for _, id := range f.IDs {
		f.lookup[id] = struct{}{}
	}
}

func (f *favoriteSet) isExpired(now time.Time) bool {
	return f.FetchedAt < now.Add(-FavoritesTTL).Unix()
}

// IsFavorite reports whether id is in the cached favorite set.
func (m *Manager) IsFavorite(id int) bool {
	m.favMu.Lock()
	defer m.favMu.Unlock()
	if m.favorites == nil {
		m.favorites = m.loadFavorites()
	}
	_, ok := m.favorites.lookup[id]
	return ok
}

// RefreshFavorites fetches the favorite set from the pod unless the cached
// one is still fresh or force is set.
func (m *Manager) RefreshFavorites(ctx context.Context, force bool) error {
	m.favMu.Lock()
	if m.favorites == nil {
		m.favorites = m.loadFavorites()
	}
	fresh := !m.favorites.isExpired(time.Now())
	m.favMu.Unlock()
	if fresh && !force {
		return nil
	}

	ids, err := m.pod.FavoriteTrackIDs(ctx)
	if err != nil {
		m.logger.Warn().Err(err).Msg(errmsg.Format(errmsg.OpFavoritesLoad, err))
		return err
	}

	set := &favoriteSet{IDs: ids, FetchedAt: time.Now().Unix()}
	set.index()
	if data, err := json.Marshal(set); err == nil {
		if err := m.store.Set(state.KeyFavorites, data); err != nil {
			m.logger.Debug().Err(err).Msg("persist favorites")
		}
	}

	m.favMu.Lock()
	m.favorites = set
	m.favMu.Unlock()
	m.logger.Debug().Int("count", len(ids)).Msg("favorites refreshed")
	return nil
}

// loadFavorites reads the cached set. Callers hold favMu.
func (m *Manager) loadFavorites() *favoriteSet {
	set := &favoriteSet{}
	data, err := m.store.Get(state.KeyFavorites)
	if err == nil && len(data) > 0 {
		if err := json.Unmarshal(data, set); err != nil {
			m.logger.Debug().Err(err).Msg(errmsg.Format(errmsg.OpFavoritesLoad, err))
			set = &favoriteSet{}
		}
	}
	set.index()
	return set
}
