package dispatch

import (
	"strings"

	"github.com/antoniostano/rin/internal/intent"
	"github.com/antoniostano/rin/internal/tools"
)

var kindKeywords = []struct {
	kind  tools.MusicKind
	words []string
}{
	{tools.MusicPlaylist, []string{"playlist", "lista"}},
	{tools.MusicAlbum, []string{"album", "álbum"}},
	{tools.MusicArtist, []string{"artist", "artista", "banda", "band"}},
}

var disambiguationWords = map[string]tools.MusicKind{
	"song":     tools.MusicTrack,
	"track":    tools.MusicTrack,
	"canción":  tools.MusicTrack,
	"cancion":  tools.MusicTrack,
	"tema":     tools.MusicTrack,
	"album":    tools.MusicAlbum,
	"álbum":    tools.MusicAlbum,
	"playlist": tools.MusicPlaylist,
	"lista":    tools.MusicPlaylist,
	"artist":   tools.MusicArtist,
	"artista":  tools.MusicArtist,
	"banda":    tools.MusicArtist,
	"band":     tools.MusicArtist,
}

// leading connectors dropped after the kind keyword is removed
// ("album de Bad Bunny" -> "Bad Bunny").
var connectors = map[string]struct{}{
	"de": {}, "del": {}, "of": {}, "by": {}, "la": {}, "el": {}, "the": {},
}

// ResolveKind maps an exact disambiguation answer to a music kind.
func ResolveKind(answer string) (tools.MusicKind, bool) {
	kind, ok := disambiguationWords[intent.Fold(answer)]
	return kind, ok
}

// InferMusicKind scans query for a kind keyword (whole words only) and
// returns the query with the keyword removed.
func InferMusicKind(query string) (tools.MusicKind, string, bool) {
	words := strings.Fields(query)
	for _, group := range kindKeywords {
		for i, w := range words {
			folded := intent.Fold(w)
			for _, kw := range group.words {
				if folded != kw {
					continue
				}
				rest := append(append([]string(nil), words[:i]...), words[i+1:]...)
				for len(rest) > 1 {
					if _, ok := connectors[intent.Fold(rest[0])]; !ok {
						break
					}
					rest = rest[1:]
				}
				return group.kind, strings.Join(rest, " "), true
			}
		}
	}
	return "", query, false
}
