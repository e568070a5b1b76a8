package pod

import "github.com/llehouerou/undertow/internal/track"

// Session is an open radio session on the pod.
type Session struct {
	ID     int
	Cookie string
}

type sessionRequest struct {
	RadioType       string `json:"radio_type"`
	RelatedObjectID string `json:"related_object_id,omitempty"`
}

type sessionResponse struct {
	ID int `json:"id"`
}

type nextTrackRequest struct {
	Session int `json:"session"`
}

type nextTrackResponse struct {
	Position int `json:"position"`
	Track    struct {
		ID int `json:"id"`
	} `json:"track"`
}

type trackResponse struct {
	ID     int    `json:"id"`
	Title  string `json:"title"`
	Artist struct {
		Name string `json:"name"`
	} `json:"artist"`
	Album struct {
		Title string `json:"title"`
		Cover *struct {
			URLs struct {
				Original string `json:"original"`
			} `json:"urls"`
		} `json:"cover"`
	} `json:"album"`
	Uploads []track.Upload `json:"uploads"`
}

func (r trackResponse) toTrack() track.Track {
	t := track.Track{
		ID:      r.ID,
		Title:   r.Title,
		Artist:  r.Artist.Name,
		Album:   r.Album.Title,
		Uploads: r.Uploads,
	}
	if r.Album.Cover != nil {
		t.CoverURL = r.Album.Cover.URLs.Original
	}
	return t
}

type favoritesResponse struct {
	Results []struct {
		ID    int `json:"id"`
		Track int `json:"track"`
	} `json:"results"`
}

type listeningRequest struct {
	Track int `json:"track"`
}
