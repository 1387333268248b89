package recommend

import (
	"encoding/json"
	"errors"
	"net/http"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"

	"github.com/andrewpols/FindMySound/analysis"
	"github.com/andrewpols/FindMySound/catalog"
	"github.com/andrewpols/FindMySound/config"
	"github.com/andrewpols/FindMySound/findmysound"
	"github.com/andrewpols/FindMySound/recommend"
	spotClient "github.com/andrewpols/FindMySound/spotify"
)

// RecommendHandler runs one full recommendation cycle for a user.
type RecommendHandler struct {
	log      *zap.SugaredLogger
	cfg      config.Config
	fs       *firestore.Client
	store    catalog.Store
	pipeline *analysis.Pipeline
	hub      *ProgressHub
}

func (*RecommendHandler) Pattern() string {
	return "/recommend"
}

func NewRecommendHandler(
	log *zap.SugaredLogger,
	cfg config.Config,
	fs *firestore.Client,
	store catalog.Store,
	pipeline *analysis.Pipeline,
	hub *ProgressHub,
) *RecommendHandler {
	return &RecommendHandler{
		log:      log,
		cfg:      cfg,
		fs:       fs,
		store:    store,
		pipeline: pipeline,
		hub:      hub,
	}
}

type RecommendRequest struct {
	UserID      string   `json:"user_id"`
	PlaylistIDs []string `json:"playlist_ids"`
}

type RecommendResponse struct {
	Recommendations []findmysound.RankedTrack `json:"recommendations"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *RecommendHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx := r.Context()

	var req RecommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" || len(req.PlaylistIDs) == 0 {
		writeError(w, http.StatusBadRequest, "user_id and playlist_ids are required")
		return
	}

	client, err := spotClient.NewUserClient(ctx, h.cfg, h.fs, req.UserID)
	if err != nil {
		h.log.Errorw("No Spotify credential for user", "user_id", req.UserID, "error", err)
		writeError(w, http.StatusUnauthorized, "reauth_required")
		return
	}
	source := catalog.NewSpotifySource(client, h.log)

	playlists := make([]*findmysound.Playlist, 0, len(req.PlaylistIDs))
	for _, id := range req.PlaylistIDs {
		songs, err := source.PlaylistSongs(ctx, id)
		if err != nil {
			writeCatalogError(w, h.log, err)
			return
		}

		resolved := make([]*findmysound.Song, 0, len(songs))
		for _, song := range songs {
			s, err := catalog.ResolveSong(ctx, h.store, song)
			if err != nil {
				h.log.Errorw("Failed to resolve song", "isrc", song.ISRC, "error", err)
				writeError(w, http.StatusInternalServerError, "failed to load playlist songs")
				return
			}
			resolved = append(resolved, s)
		}

		playlists = append(playlists, &findmysound.Playlist{
			SpotifyID: id,
			Songs:     resolved,
		})
	}

	generator := recommend.NewGenerator(source, h.store, h.log)
	orchestrator := recommend.NewOrchestrator(h.pipeline, generator, h.log)

	result, err := orchestrator.Recommend(ctx, playlists, h.hub.Broadcast)
	if err != nil {
		h.log.Errorw("Recommendation run failed", "user_id", req.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "recommendation run failed")
		return
	}

	switch result.Status {
	case recommend.StatusReauthRequired:
		writeError(w, http.StatusUnauthorized, "reauth_required")
	case recommend.StatusUpstreamError:
		writeError(w, result.Code, "upstream catalog error")
	case recommend.StatusRankingImpossible:
		writeError(w, http.StatusUnprocessableEntity, "no reference songs could be analyzed")
	default:
		json.NewEncoder(w).Encode(RecommendResponse{Recommendations: result.Ranked})
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(errorResponse{Error: msg})
}

// writeCatalogError maps catalog failures onto HTTP responses: auth failures
// become 401 reauth_required, everything else passes the upstream status
// through verbatim.
func writeCatalogError(w http.ResponseWriter, log *zap.SugaredLogger, err error) {
	if errors.Is(err, catalog.ErrReauthRequired) {
		writeError(w, http.StatusUnauthorized, "reauth_required")
		return
	}
	var ue *catalog.UpstreamError
	if errors.As(err, &ue) {
		log.Errorw("Upstream catalog error", "status", ue.Code, "error", err)
		writeError(w, ue.Code, "upstream catalog error")
		return
	}
	log.Errorw("Catalog error", "error", err)
	writeError(w, http.StatusBadGateway, "upstream catalog error")
}
