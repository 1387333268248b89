package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/andrewpols/FindMySound/logger"
	"github.com/andrewpols/FindMySound/spotify"
)

func TestHealthHandler(t *testing.T) {
	log, _ := logger.NewTestLogger()
	handler := NewHealthHandler(log, &spotify.SpotifyClient{ID: "id", Secret: "secret"})

	req, err := http.NewRequest(http.MethodGet, "/health", nil)
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v",
			status, http.StatusOK)
	}

	// Check the response body
	var resp Response
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Errorf("failed to unmarshal response: %v", err)
	}

	if !resp.Server {
		t.Error("expected server to be healthy")
	}
	if !resp.Spotify {
		t.Error("expected spotify to be configured")
	}
}

func TestHealthHandlerMissingSpotifyConfig(t *testing.T) {
	log, _ := logger.NewTestLogger()
	handler := NewHealthHandler(log, &spotify.SpotifyClient{})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	handler.ServeHTTP(rr, req)

	var resp Response
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Errorf("failed to unmarshal response: %v", err)
	}

	if resp.Spotify {
		t.Error("expected spotify to be reported unconfigured")
	}
}
