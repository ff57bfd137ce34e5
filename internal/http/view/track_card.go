package view

import (
	"fmt"

	"github.com/sifan077/TrackDesk/internal/app/model"
)

const incompleteTrackMessage = "Error: Incomplete track data. Missing required fields."

// ImageState is the cover image lifecycle. The server always starts at
// loading; the browser moves it to shown or failed from the img events.
type ImageState string

const (
	ImageLoading ImageState = "loading"
	ImageShown   ImageState = "shown"
	ImageFailed  ImageState = "failed"
)

// TrackCard is the display model of one record.
type TrackCard struct {
	Present  bool
	Warning  string
	Title    string
	Owner    string
	Album    string
	Seconds  int
	Duration string
	Explicit bool
	CoverURL string
	Image    ImageState
}

// NewTrackCard derives what to display for track. A nil track displays
// nothing; a track without title or owner displays only a warning.
func NewTrackCard(track *model.Track, coverURL string) TrackCard {
	if track == nil {
		return TrackCard{}
	}
	if !track.Complete() {
		return TrackCard{Present: true, Warning: incompleteTrackMessage}
	}

	album := track.AlbumName
	if album == "" {
		album = "Unknown Album"
	}
	seconds := track.PlaybackSeconds
	if seconds < 0 {
		seconds = 0
	}

	card := TrackCard{
		Present:  true,
		Title:    track.Name,
		Owner:    track.ArtistName,
		Album:    album,
		Seconds:  seconds,
		Duration: FormatDuration(seconds),
		Explicit: track.IsExplicit,
		CoverURL: coverURL,
	}
	if coverURL != "" {
		card.Image = ImageLoading
	}
	return card
}

// FormatDuration renders seconds as m:ss.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
