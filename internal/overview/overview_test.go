package overview_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/pulseboard/pulseboard/internal/backend"
	"github.com/pulseboard/pulseboard/internal/overview"
	"github.com/pulseboard/pulseboard/internal/shared"
	"github.com/pulseboard/pulseboard/internal/view"
)

func pageEnvelope(total int) map[string]any {
	return map[string]any{
		"success": true,
		"code":    200,
		"data": map[string]any{
			"total": total,
			"page":  1,
			"size":  1,
			"pages": total,
			"items": []any{},
		},
	}
}

// countingBackend answers every page-list endpoint with a fixed total
// per filter combination, which is all BuildSnapshot reads.
func countingBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/task/pageList", func(w http.ResponseWriter, r *http.Request) {
		var q map[string]any
		if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		total := 10
		switch status, ok := q["task_status"].(float64); {
		case ok && status == 2:
			total = 7
		case ok && status == 3:
			total = 2
		}
		_ = json.NewEncoder(w).Encode(pageEnvelope(total))
	})
	mux.HandleFunc("/api/monitor/config/pageList", func(w http.ResponseWriter, r *http.Request) {
		var q map[string]any
		if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		total := 5
		if _, ok := q["is_active"]; ok {
			total = 3
		}
		_ = json.NewEncoder(w).Encode(pageEnvelope(total))
	})
	mux.HandleFunc("/api/activation/pageList", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(pageEnvelope(4))
	})
	mux.HandleFunc("/api/accounts/pageList", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(pageEnvelope(6))
	})
	mux.HandleFunc("/api/users/pageList", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(pageEnvelope(8))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestBuildSnapshot(t *testing.T) {
	srv := countingBackend(t)
	api, err := backend.NewClient(backend.Options{BaseURL: srv.URL + "/api"}, backend.StaticToken("test-token"))
	if err != nil {
		t.Fatalf("client: %v", err)
	}

	service := overview.NewService(api)
	snap, err := service.BuildSnapshot(context.Background())
	if err != nil {
		t.Fatalf("build snapshot: %v", err)
	}

	if snap.TotalTasks != 10 || snap.SucceededTasks != 7 || snap.FailedTasks != 2 {
		t.Fatalf("unexpected task counts: %+v", snap)
	}
	if snap.SuccessRate != 0.7 {
		t.Fatalf("expected success rate 0.7, got %v", snap.SuccessRate)
	}
	if snap.TotalMonitors != 5 || snap.ActiveMonitors != 3 {
		t.Fatalf("unexpected monitor counts: %+v", snap)
	}
	if snap.UnusedCodes != 4 || snap.TotalAccounts != 6 || snap.TotalUsers != 8 {
		t.Fatalf("unexpected counts: %+v", snap)
	}
	if snap.GeneratedAt.IsZero() {
		t.Fatalf("expected GeneratedAt to be set")
	}
}

func TestCacheRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := overview.NewCache(client, time.Minute)
	ctx := context.Background()

	if _, err := cache.Load(ctx); err != overview.ErrNoSnapshot {
		t.Fatalf("expected ErrNoSnapshot, got %v", err)
	}

	snap := overview.Snapshot{
		TotalTasks:     10,
		SucceededTasks: 7,
		FailedTasks:    2,
		SuccessRate:    0.7,
		GeneratedAt:    time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}
	if err := cache.Store(ctx, snap); err != nil {
		t.Fatalf("store snapshot: %v", err)
	}

	loaded, err := cache.Load(ctx)
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	if loaded != snap {
		t.Fatalf("round trip mismatch: got %+v want %+v", loaded, snap)
	}

	mr.FastForward(2 * time.Minute)
	if _, err := cache.Load(ctx); err != overview.ErrNoSnapshot {
		t.Fatalf("expected ErrNoSnapshot after expiry, got %v", err)
	}
}

func TestShowOverviewFailedBuildDoesNotCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	api, err := backend.NewClient(backend.Options{BaseURL: srv.URL + "/api"}, backend.StaticToken("test-token"))
	if err != nil {
		t.Fatalf("client: %v", err)
	}

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := overview.NewCache(redisClient, time.Minute)
	sessionManager := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)
	templates, err := view.NewEngine()
	if err != nil {
		t.Fatalf("templates: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := overview.NewHandler(logger, overview.NewService(api), cache, templates, shared.NewCSRFManager("csrfsecret"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sessionManager.Load(context.Background(), req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))

	res := httptest.NewRecorder()
	handler.ShowOverview(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected degraded page with status 200, got %d", res.Code)
	}
	if _, err := cache.Load(context.Background()); !errors.Is(err, overview.ErrNoSnapshot) {
		t.Fatalf("expected cold cache after failed build, got %v", err)
	}
}

func TestSnapshotAge(t *testing.T) {
	snap := overview.Snapshot{GeneratedAt: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)}
	now := snap.GeneratedAt.Add(90 * time.Second)
	if got := snap.Age(now); got != 90*time.Second {
		t.Fatalf("expected age 90s, got %v", got)
	}
}
