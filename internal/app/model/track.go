package model

// Track is the metadata record the backend returns for an ISRC code.
type Track struct {
	ISRC            string `json:"isrc,omitempty"`
	Name            string `json:"name"`
	ArtistName      string `json:"artistName"`
	AlbumName       string `json:"albumName"`
	PlaybackSeconds int    `json:"playbackSeconds"`
	IsExplicit      bool   `json:"isExplicit"`
}

// Complete reports whether the fields required for display are present.
func (t *Track) Complete() bool {
	return t != nil && t.Name != "" && t.ArtistName != ""
}
