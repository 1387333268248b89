package firestore

import (
	"context"
	"log"
	"time"

	"cloud.google.com/go/firestore"
	"golang.org/x/oauth2"
)

// SpotifyToken is stored in Firestore per user.
type SpotifyToken struct {
	AccessToken  string `json:"access_token" firestore:"access_token"`
	RefreshToken string `json:"refresh_token" firestore:"refresh_token"`
	TokenType    string `json:"token_type" firestore:"token_type"`
	Expiry       int64  `json:"expiry" firestore:"expiry"`
}

// ProvideDB provides a firestore client
func ProvideDB() *firestore.Client {
	projectID := "findmysound-dev"

	client, err := firestore.NewClient(context.TODO(), projectID)
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}
	return client
}

// SaveSpotifyToken stores a user's OAuth token in the spotify_tokens collection.
func SaveSpotifyToken(ctx context.Context, fs *firestore.Client, userID string, token *oauth2.Token) error {
	st := SpotifyToken{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		Expiry:       token.Expiry.Unix(),
	}
	_, err := fs.Collection("spotify_tokens").Doc(userID).Set(ctx, st)
	return err
}

// LoadSpotifyToken fetches a user's stored OAuth token.
func LoadSpotifyToken(ctx context.Context, fs *firestore.Client, userID string) (*oauth2.Token, error) {
	doc, err := fs.Collection("spotify_tokens").Doc(userID).Get(ctx)
	if err != nil {
		return nil, err
	}
	var st SpotifyToken
	if err := doc.DataTo(&st); err != nil {
		return nil, err
	}
	return &oauth2.Token{
		AccessToken:  st.AccessToken,
		RefreshToken: st.RefreshToken,
		TokenType:    st.TokenType,
		Expiry:       time.Unix(st.Expiry, 0),
	}, nil
}

var Options = ProvideDB
