package playlists

import (
	"encoding/json"
	"errors"
	"net/http"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"

	"github.com/andrewpols/FindMySound/catalog"
	"github.com/andrewpols/FindMySound/config"
	"github.com/andrewpols/FindMySound/findmysound"
	spotClient "github.com/andrewpols/FindMySound/spotify"
)

// SyncPlaylistsHandler pulls the user's Spotify playlists and their songs
// into the local catalog.
type SyncPlaylistsHandler struct {
	log   *zap.SugaredLogger
	cfg   config.Config
	fs    *firestore.Client
	store catalog.Store
}

func (*SyncPlaylistsHandler) Pattern() string {
	return "/playlists/sync"
}

func NewSyncPlaylistsHandler(
	log *zap.SugaredLogger,
	cfg config.Config,
	fs *firestore.Client,
	store catalog.Store,
) *SyncPlaylistsHandler {
	return &SyncPlaylistsHandler{
		log:   log,
		cfg:   cfg,
		fs:    fs,
		store: store,
	}
}

type SyncPlaylistsRequest struct {
	UserID string `json:"user_id"`
}

type SyncPlaylistsResponse struct {
	Playlists []*findmysound.Playlist `json:"playlists"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *SyncPlaylistsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx := r.Context()

	var req SyncPlaylistsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	client, err := spotClient.NewUserClient(ctx, h.cfg, h.fs, req.UserID)
	if err != nil {
		h.log.Errorw("No Spotify credential for user", "user_id", req.UserID, "error", err)
		writeError(w, http.StatusUnauthorized, "reauth_required")
		return
	}
	source := catalog.NewSpotifySource(client, h.log)

	playlists, err := source.UserPlaylists(ctx)
	if err != nil {
		writeCatalogError(w, h.log, err)
		return
	}

	for _, pl := range playlists {
		songs, err := source.PlaylistSongs(ctx, pl.SpotifyID)
		if err != nil {
			writeCatalogError(w, h.log, err)
			return
		}

		pl.Songs = make([]*findmysound.Song, 0, len(songs))
		for _, song := range songs {
			s, err := catalog.ResolveSong(ctx, h.store, song)
			if err != nil {
				h.log.Errorw("Failed to resolve song", "isrc", song.ISRC, "error", err)
				writeError(w, http.StatusInternalServerError, "failed to sync playlists")
				return
			}
			pl.Songs = append(pl.Songs, s)
		}
	}

	h.log.Infow("Synced playlists", "user_id", req.UserID, "playlists", len(playlists))

	json.NewEncoder(w).Encode(SyncPlaylistsResponse{Playlists: playlists})
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
