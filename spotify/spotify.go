package spotify

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/andrewpols/FindMySound/config"
	spot "github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"go.uber.org/zap"
	"golang.org/x/oauth2/clientcredentials"

	fsClient "github.com/andrewpols/FindMySound/firestore"
)

var userScopes = []string{
	spotifyauth.ScopePlaylistReadPrivate,
	spotifyauth.ScopePlaylistModifyPublic,
	spotifyauth.ScopePlaylistModifyPrivate,
}

type SpotifyClient struct {
	Client *spot.Client
	ID     string
	Secret string
}

// ProvideSpotify provides an app-level Spotify client using the
// client-credentials flow. Per-user clients come from NewUserClient.
func ProvideSpotify(cfg config.Config, log *zap.SugaredLogger) *SpotifyClient {
	log.Info("setting up spotify client")

	ccfg := &clientcredentials.Config{
		ClientID:     cfg.SpotifyID,
		ClientSecret: cfg.SpotifySecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	httpClient := ccfg.Client(context.Background())

	return &SpotifyClient{
		Client: spot.New(httpClient),
		ID:     cfg.SpotifyID,
		Secret: cfg.SpotifySecret,
	}
}

// NewAuthenticator builds the OAuth authenticator used by the auth handlers
// and by per-user clients.
func NewAuthenticator(cfg config.Config) *spotifyauth.Authenticator {
	return spotifyauth.New(
		spotifyauth.WithClientID(cfg.SpotifyID),
		spotifyauth.WithClientSecret(cfg.SpotifySecret),
		spotifyauth.WithRedirectURL(cfg.SpotifyRedirectURL),
		spotifyauth.WithScopes(userScopes...),
	)
}

// NewUserClient creates a per-user Spotify client from stored OAuth tokens.
// The underlying oauth2 transport handles token refresh automatically.
func NewUserClient(ctx context.Context, cfg config.Config, fs *firestore.Client, userID string) (*spot.Client, error) {
	token, err := fsClient.LoadSpotifyToken(ctx, fs, userID)
	if err != nil {
		return nil, err
	}

	auth := NewAuthenticator(cfg)
	httpClient := auth.Client(ctx, token)
	return spot.New(httpClient), nil
}

var Options = ProvideSpotify
