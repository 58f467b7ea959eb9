package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/set-game-backend/internal/config"
	"github.com/DoyleJ11/set-game-backend/internal/hub"
	"github.com/DoyleJ11/set-game-backend/pkg/types"
)

func testGameConfig() config.Game {
	return config.Game{
		GridCapacity:     12,
		FeatureCount:     4,
		FeatureRange:     3,
		SetSize:          3,
		Players:          2,
		HumanPlayers:     2,
		RoundDuration:    time.Minute,
		WarningThreshold: 5 * time.Second,
		PointFreeze:      5 * time.Millisecond,
		PenaltyFreeze:    5 * time.Millisecond,
		GenerateInterval: time.Millisecond,
	}
}

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCreateAndFetchGame(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := hub.NewHub(ctx, zap.NewNop())
	router := SetupRoutes(h, testGameConfig())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/games", strings.NewReader(`{}`)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d body=%s", rec.Code, rec.Body.String())
	}
	var created struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if len(created.Code) != 6 {
		t.Fatalf("code = %q", created.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/games/"+created.Code, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("snapshot status = %d", rec.Code)
	}
	var snap types.Snapshot
	if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if len(snap.Slots) != 12 || len(snap.Scores) != 2 {
		t.Fatalf("snapshot = %+v", snap)
	}

	h.Inbox() <- hub.ShutdownHub{}
}

func TestCreateGame_RejectsBadOverrides(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := hub.NewHub(ctx, zap.NewNop())
	router := SetupRoutes(h, testGameConfig())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/games", strings.NewReader(`{"players":0}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestGetSnapshot_UnknownCode(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := hub.NewHub(ctx, zap.NewNop())
	router := SetupRoutes(h, testGameConfig())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/games/NOPE", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
