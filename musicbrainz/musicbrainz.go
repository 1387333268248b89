package musicbrainz

import (
	"github.com/mager/musicbrainz-go/musicbrainz"
)

type MusicbrainzClient struct {
	Client *musicbrainz.MusicbrainzClient
}

func ProvideMusicbrainz() *MusicbrainzClient {
	var c MusicbrainzClient
	c.Client = musicbrainz.NewMusicbrainzClient().
		WithUserAgent("andrewpols/findmysound", "1.0.0", "https://github.com/andrewpols/FindMySound")

	return &c
}

var Options = ProvideMusicbrainz
