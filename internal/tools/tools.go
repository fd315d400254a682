// Package tools holds the value types and errors shared by the assistant's
// collaborator implementations.
package tools

import "errors"

var (
	// ErrUnavailable means the collaborator is configured off or could not
	// start (no browser, no credentials).
	ErrUnavailable    = errors.New("tool unavailable")
	ErrNotFound       = errors.New("nothing found")
	ErrNoActiveDevice = errors.New("no active playback device")
)

// MediaItem is one search hit that can be played later by locator.
type MediaItem struct {
	Title   string `json:"title"`
	Locator string `json:"locator"`
}

// MusicKind is the catalogue entity a music request refers to.
type MusicKind string

const (
	MusicTrack    MusicKind = "track"
	MusicAlbum    MusicKind = "album"
	MusicPlaylist MusicKind = "playlist"
	MusicArtist   MusicKind = "artist"
)

// Label is the user-facing noun for k.
func (k MusicKind) Label() string {
	if k == MusicTrack {
		return "song"
	}
	return string(k)
}

// Direction of a translation.
type Direction int

const (
	ToEnglish Direction = iota
	ToSpanish
)

func (d Direction) String() string {
	if d == ToSpanish {
		return "en->es"
	}
	return "es->en"
}

// Source and Target return ISO 639-1 codes.
func (d Direction) Source() string {
	if d == ToSpanish {
		return "en"
	}
	return "es"
}

func (d Direction) Target() string {
	if d == ToSpanish {
		return "es"
	}
	return "en"
}
