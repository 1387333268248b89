package spotify

import (
	"strings"

	spot "github.com/zmb3/spotify/v2"
)

// GetFirstArtist returns the first artist
func GetFirstArtist(artists []spot.SimpleArtist) string {
	if len(artists) == 0 {
		return "Various Artists"
	}

	return artists[0].Name
}

// ExtractID pulls the bare ID out of a spotify:track:<id> URI.
func ExtractID(uri spot.URI) spot.ID {
	parts := strings.Split(string(uri), ":")
	if len(parts) < 3 {
		return ""
	}
	return spot.ID(parts[len(parts)-1])
}
