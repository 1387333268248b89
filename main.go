package main

import (
	"context"
	"net"
	"net/http"

	fs "cloud.google.com/go/firestore"
	"github.com/gorilla/mux"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/andrewpols/FindMySound/analysis"
	"github.com/andrewpols/FindMySound/audio"
	"github.com/andrewpols/FindMySound/catalog"
	"github.com/andrewpols/FindMySound/config"
	"github.com/andrewpols/FindMySound/database"
	"github.com/andrewpols/FindMySound/firestore"
	"github.com/andrewpols/FindMySound/handler/health"
	playlistHandler "github.com/andrewpols/FindMySound/handler/playlist"
	playlistsHandler "github.com/andrewpols/FindMySound/handler/playlists"
	recHandler "github.com/andrewpols/FindMySound/handler/recommend"
	spotHandler "github.com/andrewpols/FindMySound/handler/spotify"
	trackHandler "github.com/andrewpols/FindMySound/handler/track"
	"github.com/andrewpols/FindMySound/logger"
	"github.com/andrewpols/FindMySound/musicbrainz"
	"github.com/andrewpols/FindMySound/spotify"
)

// Route is an http.Handler that knows the mux pattern
// under which it will be registered.
type Route interface {
	http.Handler

	// Pattern reports the path at which this is registered.
	Pattern() string
}

func main() {
	fx.New(
		fx.Provide(NewHTTPServer,
			config.Options,
			logger.Options,
			database.Options,
			firestore.Options,
			spotify.Options,
			musicbrainz.Options,

			catalog.ProvideStore,
			audio.ProvideSource,
			audio.ProvideTranscoder,
			analysis.ProvideProvider,
			analysis.ProvideAnalyzer,
			NewAnalysisPipeline,
		),
		fx.Invoke(func(*http.Server) {}),
	).Run()
}

// NewAnalysisPipeline wires the analysis pipeline from config.
func NewAnalysisPipeline(
	analyzer analysis.SongAnalyzer,
	store catalog.Store,
	log *zap.SugaredLogger,
	cfg config.Config,
) *analysis.Pipeline {
	return analysis.NewPipeline(analyzer, store, log, analysis.Config{
		Workers:     cfg.AnalysisWorkers,
		Pace:        cfg.AnalysisPace,
		CallTimeout: cfg.AnalysisTimeout,
		MaxAttempts: cfg.AnalysisMaxAttempts,
	})
}

func NewHTTPServer(
	lc fx.Lifecycle,
	log *zap.SugaredLogger,
	cfg config.Config,
	fsClient *fs.Client,
	spotifyClient *spotify.SpotifyClient,
	musicbrainzClient *musicbrainz.MusicbrainzClient,
	store catalog.Store,
	pipeline *analysis.Pipeline,
) *http.Server {
	router := mux.NewRouter()
	router.Use(jsonMiddleware)

	srv := &http.Server{Addr: ":8080", Handler: router}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			log.Infof("Starting HTTP server at %s", srv.Addr)
			go srv.Serve(ln)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})

	// Define handlers
	progressHub := recHandler.NewProgressHub(log)

	routes := []Route{
		health.NewHealthHandler(log, spotifyClient),
		spotHandler.NewAuthLoginHandler(log, cfg),
		spotHandler.NewAuthCallbackHandler(log, cfg, fsClient),
		playlistsHandler.NewSyncPlaylistsHandler(log, cfg, fsClient, store),
		playlistHandler.NewCreatePlaylistHandler(log, cfg, fsClient),
		recHandler.NewRecommendHandler(log, cfg, fsClient, store, pipeline, progressHub),
		progressHub,
		trackHandler.NewGetTrackHandler(log, musicbrainzClient),
	}
	for _, route := range routes {
		router.Handle(route.Pattern(), route)
	}

	return srv
}

func jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}
