package audio

import "time"

// Song is a playable catalog entry. AssetURL may be empty for songs that
// only carry sheet metadata; those play in metadata-only mode.
type Song struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Artist   string        `json:"artist,omitempty"`
	AssetURL string        `json:"asset_url,omitempty"`
	Duration time.Duration `json:"duration"`
}

// HasAsset reports whether the song has real audio to play.
func (s Song) HasAsset() bool {
	return s.AssetURL != ""
}

// State is a snapshot of the player. Owned exclusively by the Player;
// callers read it, they never mutate it.
type State struct {
	CurrentSong  *Song         `json:"current_song"`
	IsPlaying    bool          `json:"is_playing"`
	IsLoading    bool          `json:"is_loading"`
	Progress     time.Duration `json:"progress"`
	Duration     time.Duration `json:"duration"`
	Volume       float64       `json:"volume"`
	Playlist     []Song        `json:"playlist"`
	CurrentIndex int           `json:"current_index"`
	Err          string        `json:"error,omitempty"`
}
