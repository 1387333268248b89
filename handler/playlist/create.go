package playlist

import (
	"encoding/json"
	"errors"
	"net/http"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"

	"github.com/andrewpols/FindMySound/catalog"
	"github.com/andrewpols/FindMySound/config"
	spotClient "github.com/andrewpols/FindMySound/spotify"
)

const (
	playlistName        = "FindMySound Recommended Playlist"
	playlistDescription = "Songs picked for you based on your playlists."
)

// CreatePlaylistHandler saves a set of recommended tracks to a new Spotify
// playlist on the user's account.
type CreatePlaylistHandler struct {
	log *zap.SugaredLogger
	cfg config.Config
	fs  *firestore.Client
}

func (*CreatePlaylistHandler) Pattern() string {
	return "/playlist"
}

func NewCreatePlaylistHandler(log *zap.SugaredLogger, cfg config.Config, fs *firestore.Client) *CreatePlaylistHandler {
	return &CreatePlaylistHandler{log: log, cfg: cfg, fs: fs}
}

type CreatePlaylistRequest struct {
	UserID string   `json:"user_id"`
	URIs   []string `json:"uris"`
}

type CreatePlaylistResponse struct {
	SpotifyPlaylistID string `json:"spotify_playlist_id"`
	URL               string `json:"url"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *CreatePlaylistHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx := r.Context()

	var req CreatePlaylistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" || len(req.URIs) == 0 {
		writeError(w, http.StatusBadRequest, "user_id and uris are required")
		return
	}

	client, err := spotClient.NewUserClient(ctx, h.cfg, h.fs, req.UserID)
	if err != nil {
		h.log.Errorw("No Spotify credential for user", "user_id", req.UserID, "error", err)
		writeError(w, http.StatusUnauthorized, "reauth_required")
		return
	}
	source := catalog.NewSpotifySource(client, h.log)

	id, url, err := source.CreatePlaylist(ctx, playlistName, playlistDescription)
	if err != nil {
		writeCatalogError(w, h.log, err)
		return
	}

	if err := source.AddToPlaylist(ctx, id, req.URIs); err != nil {
		writeCatalogError(w, h.log, err)
		return
	}

	h.log.Infow("Created playlist", "user_id", req.UserID, "playlist_id", id, "tracks", len(req.URIs))

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(CreatePlaylistResponse{
		SpotifyPlaylistID: id,
		URL:               url,
	})
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(errorResponse{Error: msg})
}

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
