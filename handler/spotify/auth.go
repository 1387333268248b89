package spotify

import (
	"context"
	"encoding/json"
	"net/http"

	"cloud.google.com/go/firestore"
	"github.com/andrewpols/FindMySound/config"
	fsClient "github.com/andrewpols/FindMySound/firestore"
	spotClient "github.com/andrewpols/FindMySound/spotify"
	"go.uber.org/zap"
)

// --- Auth Login Handler ---

// AuthLoginHandler redirects the user to Spotify's OAuth consent screen.
type AuthLoginHandler struct {
	log *zap.SugaredLogger
	cfg config.Config
}

func (*AuthLoginHandler) Pattern() string {
	return "/auth/spotify"
}

func NewAuthLoginHandler(log *zap.SugaredLogger, cfg config.Config) *AuthLoginHandler {
	return &AuthLoginHandler{log: log, cfg: cfg}
}

func (h *AuthLoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, `{"error":"missing user_id"}`, http.StatusBadRequest)
		return
	}
	url := spotClient.NewAuthenticator(h.cfg).AuthURL(userID)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// --- Auth Callback Handler ---

// AuthCallbackHandler exchanges the OAuth code for tokens and stores them.
type AuthCallbackHandler struct {
	log *zap.SugaredLogger
	cfg config.Config
	fs  *firestore.Client
}

func (*AuthCallbackHandler) Pattern() string {
	return "/auth/spotify/callback"
}

func NewAuthCallbackHandler(log *zap.SugaredLogger, cfg config.Config, fs *firestore.Client) *AuthCallbackHandler {
	return &AuthCallbackHandler{log: log, cfg: cfg, fs: fs}
}

func (h *AuthCallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := context.Background()

	userID := r.URL.Query().Get("state")
	if userID == "" {
		http.Error(w, `{"error":"missing state"}`, http.StatusBadRequest)
		return
	}

	token, err := spotClient.NewAuthenticator(h.cfg).Token(ctx, userID, r)
	if err != nil {
		h.log.Errorw("Failed to exchange Spotify token", "error", err)
		http.Error(w, `{"error":"token exchange failed"}`, http.StatusInternalServerError)
		return
	}

	if err := fsClient.SaveSpotifyToken(ctx, h.fs, userID, token); err != nil {
		h.log.Errorw("Failed to store token", "error", err)
		http.Error(w, `{"error":"failed to store token"}`, http.StatusInternalServerError)
		return
	}

	h.log.Infow("Spotify account connected", "user_id", userID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "connected",
		"user_id": userID,
	})
}
