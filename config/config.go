package config

import (
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	DatabaseURL string

	SpotifyID          string
	SpotifySecret      string
	SpotifyRedirectURL string

	// Analysis pipeline tunables. Worker count stays small on purpose;
	// ReccoBeats throttles aggressively.
	AnalysisWorkers     int           `default:"3"`
	AnalysisPace        time.Duration `default:"2s"`
	AnalysisTimeout     time.Duration `default:"30s"`
	AnalysisMaxAttempts int           `default:"5"`
}

func ProvideConfig() Config {
	var cfg Config
	err := envconfig.Process("findmysound", &cfg)
	if err != nil {
		log.Fatal(err.Error())
	}
	return cfg
}

var Options = ProvideConfig
