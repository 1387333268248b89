package recommend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"

	"github.com/andrewpols/FindMySound/catalog"
	"github.com/andrewpols/FindMySound/logger"
	"github.com/andrewpols/FindMySound/recommend"
)

func TestWriteCatalogError(t *testing.T) {
	log, _ := logger.NewTestLogger()

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{
			name:     "reauth required",
			err:      fmt.Errorf("%w: token expired", catalog.ErrReauthRequired),
			wantCode: http.StatusUnauthorized,
			wantMsg:  "reauth_required",
		},
		{
			name:     "upstream status passes through",
			err:      &catalog.UpstreamError{Code: http.StatusTooManyRequests, Err: errors.New("throttled")},
			wantCode: http.StatusTooManyRequests,
			wantMsg:  "upstream catalog error",
		},
		{
			name:     "unknown error becomes bad gateway",
			err:      errors.New("connection reset"),
			wantCode: http.StatusBadGateway,
			wantMsg:  "upstream catalog error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeCatalogError(rec, log, tt.err)

			assert.Equal(t, tt.wantCode, rec.Code)

			var body errorResponse
			assert.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.wantMsg, body.Error)
		})
	}
}

func TestRecommendHandlerRejectsBadRequests(t *testing.T) {
	log, _ := logger.NewTestLogger()
	h := &RecommendHandler{log: log}

	tests := []struct {
		name string
		body string
	}{
		{"not json", "{"},
		{"missing user_id", `{"playlist_ids":["a"]}`},
		{"missing playlists", `{"user_id":"u1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/recommend", strings.NewReader(tt.body))
			h.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestProgressHubBroadcast(t *testing.T) {
	log, _ := logger.NewTestLogger()
	hub := NewProgressHub(log)

	srv := httptest.NewServer(hub)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + hub.Pattern()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	assert.NoError(t, err)
	defer conn.Close()

	// The subscription is registered during the upgrade, but give the server
	// a beat before broadcasting.
	time.Sleep(50 * time.Millisecond)

	hub.Broadcast(recommend.StateRanking)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var update ProgressUpdate
	assert.NoError(t, conn.ReadJSON(&update))
	assert.Equal(t, string(recommend.StateRanking), update.State)
}
