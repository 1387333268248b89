package track

import (
	"encoding/json"
	"net/http"
	"strings"

	mb "github.com/mager/musicbrainz-go/musicbrainz"
	"go.uber.org/zap"

	"github.com/andrewpols/FindMySound/musicbrainz"
	"github.com/andrewpols/FindMySound/util"
)

const maxGenres = 10

// GetTrackHandler serves track detail looked up by ISRC through MusicBrainz.
type GetTrackHandler struct {
	log               *zap.SugaredLogger
	musicbrainzClient *musicbrainz.MusicbrainzClient
}

func (*GetTrackHandler) Pattern() string {
	return "/track"
}

// NewGetTrackHandler builds a new GetTrackHandler.
func NewGetTrackHandler(log *zap.SugaredLogger, musicbrainzClient *musicbrainz.MusicbrainzClient) *GetTrackHandler {
	return &GetTrackHandler{
		log:               log,
		musicbrainzClient: musicbrainzClient,
	}
}

type GetTrackResponse struct {
	ISRC        string   `json:"isrc"`
	Name        string   `json:"name"`
	Artist      string   `json:"artist"`
	ReleaseDate string   `json:"release_date"`
	Genres      []string `json:"genres"`
}

func (h *GetTrackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	isrc := r.URL.Query().Get("isrc")
	if isrc == "" {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "isrc is required"})
		return
	}

	l := h.log
	l.Infow("Fetching track", "isrc", isrc)

	recs, err := h.musicbrainzClient.Client.SearchRecordingsByISRC(mb.SearchRecordingsByISRCRequest{
		ISRC: isrc,
	})
	if err != nil {
		l.Errorf("error searching recordings: %v", err)
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]string{"error": "recording lookup failed"})
		return
	}
	if recs.Count < 1 {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "no recording for isrc"})
		return
	}

	recording, err := h.musicbrainzClient.Client.GetRecording(mb.GetRecordingRequest{
		ID:       recs.Recordings[0].ID,
		Includes: []mb.Include{"artist-credits", "genres", "releases"},
	})
	if err != nil {
		l.Errorf("error fetching recording: %v", err)

		// Attempt to fetch the second recording if available
		if len(recs.Recordings) > 1 {
			recording, err = h.musicbrainzClient.Client.GetRecording(mb.GetRecordingRequest{
				ID:       recs.Recordings[1].ID,
				Includes: []mb.Include{"artist-credits", "genres", "releases"},
			})
		}
		if err != nil {
			w.WriteHeader(http.StatusBadGateway)
			json.NewEncoder(w).Encode(map[string]string{"error": "recording lookup failed"})
			return
		}
	}

	resp := GetTrackResponse{
		ISRC:        isrc,
		Name:        recording.Recording.Title,
		Artist:      getArtistForRecording(recording.Recording),
		ReleaseDate: recording.Recording.FirstReleaseDate,
		Genres:      getGenresForRecording(recording.Recording),
	}

	json.NewEncoder(w).Encode(resp)
}

func getArtistForRecording(rec mb.Recording) string {
	if rec.ArtistCredits == nil || len(*rec.ArtistCredits) == 0 {
		return "Various Artists"
	}

	var names []string
	for _, credit := range *rec.ArtistCredits {
		if credit.Artist != nil {
			names = append(names, credit.Artist.Name)
		}
	}
	if len(names) == 0 {
		return "Various Artists"
	}
	return strings.Join(names, ", ")
}

// getGenresForRecording ranks recording genres by vote count, falling back to
// the credited artists' genres when the recording carries none.
func getGenresForRecording(rec mb.Recording) []string {
	counts := make(map[string]int)

	if rec.Genres != nil {
		for _, g := range *rec.Genres {
			counts[g.Name] += g.Count
		}
	}

	if len(counts) == 0 && rec.ArtistCredits != nil {
		for _, credit := range *rec.ArtistCredits {
			if credit.Artist != nil && credit.Artist.Genres != nil {
				for _, g := range *credit.Artist.Genres {
					counts[g.Name] += g.Count
				}
			}
		}
	}

	genres := util.RankGenres(counts)
	if len(genres) > maxGenres {
		genres = genres[:maxGenres]
	}
	return genres
}
