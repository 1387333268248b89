package util

import (
	"sort"

	spot "github.com/zmb3/spotify/v2"
	"golang.org/x/exp/maps"
)

func GetThumb(a spot.SimpleAlbum) *string {
	var o string

	// Iterate through all images to find the one with height and width 300
	for _, img := range a.Images {
		if img.Height == 300 && img.Width == 300 {
			o = img.URL
			return &o
		}
	}

	// If no image with height and width 300 is found, return nil
	return nil
}

// GetFirstImage returns the first image URL, or empty when there are none.
func GetFirstImage(images []spot.Image) string {
	if len(images) == 0 {
		return ""
	}
	return images[0].URL
}

// RankGenres returns genre names ranked by their number of occurrences
func RankGenres(counts map[string]int) []string {
	var sorted []string
	sorted = maps.Keys(counts)
	sort.Slice(sorted, func(i, j int) bool {
		if counts[sorted[i]] != counts[sorted[j]] {
			return counts[sorted[i]] > counts[sorted[j]]
		}
		return sorted[i] < sorted[j]
	})

	return sorted
}

func GetISRC(track *spot.FullTrack) *string {
	if isrc, ok := track.ExternalIDs["isrc"]; ok {
		return &isrc
	}

	return nil
}
