package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/assert/v2"

	"github.com/aircast-dev/aircast/internal/broadcast"
	"github.com/aircast-dev/aircast/internal/config"
	"github.com/aircast-dev/aircast/internal/pipeline"
	"github.com/aircast-dev/aircast/internal/station"
	"github.com/aircast-dev/aircast/internal/store"
)

type fakeTrigger struct {
	result pipeline.Result
	err    error
	got    pipeline.Request
}

func (f *fakeTrigger) Run(ctx context.Context, req pipeline.Request) (pipeline.Result, error) {
	f.got = req
	if f.err != nil {
		return pipeline.Result{}, f.err
	}
	return f.result, nil
}

type fakeRuns struct {
	runs      []store.Run
	events    []store.RunEvent
	gotFilter store.ListFilter
	err       error
}

func (f *fakeRuns) GetRun(ctx context.Context, runID string) (store.Run, error) {
	if f.err != nil {
		return store.Run{}, f.err
	}
	for _, run := range f.runs {
		if run.RunID == runID {
			return run, nil
		}
	}
	return store.Run{}, store.ErrNotFound
}

func (f *fakeRuns) ListRuns(ctx context.Context, filter store.ListFilter) ([]store.Run, error) {
	f.gotFilter = filter
	return f.runs, f.err
}

func (f *fakeRuns) ListRunEvents(ctx context.Context, runID string, limit int) ([]store.RunEvent, error) {
	return f.events, f.err
}

func newTestServer(t *testing.T, trigger BroadcastTrigger, runs RunReader) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	catalog, err := station.NewCatalog("", logger)
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	return NewServer(config.Default(), trigger, runs, catalog, nil, logger)
}

func publishedResult() pipeline.Result {
	return pipeline.Result{
		RunID: "run-1",
		Station: station.Station{
			ID: "bitcoin_og",
		},
		Artifact: broadcast.Artifact{
			StreamID:             "run-1",
			StationID:            "bitcoin_og",
			AudioPath:            "/data/broadcasts/broadcast_run-1.mp3",
			CoverPath:            "/data/broadcasts/cover_run-1.png",
			TotalDurationSeconds: 312.5,
			SegmentCount:         8,
			Status:               broadcast.StatusPublished,
		},
		ItemCount:    5,
		SegmentCount: 8,
		QualityScore: 0.82,
		Phases:       []string{"collect", "mix", "script", "voice", "cover", "assemble", "publish"},
	}
}

func TestCreateBroadcastReturnsDescriptor(t *testing.T) {
	trigger := &fakeTrigger{result: publishedResult()}
	s := newTestServer(t, trigger, &fakeRuns{})

	w := httptest.NewRecorder()
	body := `{"station_id":"bitcoin_og","target_duration_minutes":10}`
	req := httptest.NewRequest("POST", "/api/v1/broadcasts", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var res BroadcastResponse
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	assert.Equal(t, "run-1", res.StreamID)
	assert.Equal(t, "published", res.Status)
	assert.Equal(t, "/audio/broadcast_run-1.mp3", res.AudioURL)
	assert.Equal(t, "/audio/cover_run-1.png", res.CoverURL)
	assert.Equal(t, 8, res.SegmentCount)
	assert.Equal(t, 5, res.Stats.Items)
	assert.Equal(t, 7, len(res.Stats.Phases))

	assert.Equal(t, "bitcoin_og", trigger.got.StationID)
	assert.Equal(t, 10, trigger.got.TargetDurationMinutes)
}

func TestCreateBroadcastDefaultsStation(t *testing.T) {
	trigger := &fakeTrigger{result: publishedResult()}
	s := newTestServer(t, trigger, &fakeRuns{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/broadcasts", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "breaking_news", trigger.got.StationID)
}

func TestCreateBroadcastInvalidBody(t *testing.T) {
	trigger := &fakeTrigger{}
	s := newTestServer(t, trigger, &fakeRuns{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/broadcasts", strings.NewReader(`{"station_id": 42`))
	req.Header.Set("Content-Type", "application/json")
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var res ErrorResponse
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, pipeline.CodeInvalidRequest, res.ErrorCode)
}

func TestCreateBroadcastStatusMapping(t *testing.T) {
	cases := []struct {
		code       string
		retry      bool
		wantStatus int
	}{
		{pipeline.CodeUnknownStation, false, http.StatusNotFound},
		{pipeline.CodeRunInProgress, true, http.StatusConflict},
		{pipeline.CodeInsufficientContent, false, http.StatusUnprocessableEntity},
		{pipeline.CodeScriptGeneration, false, http.StatusBadGateway},
		{pipeline.CodeVoiceGeneration, true, http.StatusBadGateway},
		{pipeline.CodeAssemblyConsistency, false, http.StatusInternalServerError},
		{pipeline.CodeInternal, true, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			trigger := &fakeTrigger{err: &pipeline.RunError{
				Code:            tc.code,
				Message:         "stage failed",
				PhasesCompleted: []string{"collect", "mix"},
				RetryPossible:   tc.retry,
			}}
			s := newTestServer(t, trigger, &fakeRuns{})

			w := httptest.NewRecorder()
			req := httptest.NewRequest("POST", "/api/v1/broadcasts", strings.NewReader(`{"station_id":"bitcoin_og"}`))
			req.Header.Set("Content-Type", "application/json")
			s.Handler().ServeHTTP(w, req)

			assert.Equal(t, tc.wantStatus, w.Code)

			var res ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
				t.Fatalf("decode error response: %v", err)
			}
			assert.Equal(t, tc.code, res.ErrorCode)
			assert.Equal(t, tc.retry, res.RetryPossible)
			assert.Equal(t, []string{"collect", "mix"}, res.PhasesCompleted)
		})
	}
}

func TestCreateBroadcastUnclassifiedError(t *testing.T) {
	trigger := &fakeTrigger{err: errors.New("boom")}
	s := newTestServer(t, trigger, &fakeRuns{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/broadcasts", strings.NewReader(`{"station_id":"bitcoin_og"}`))
	req.Header.Set("Content-Type", "application/json")
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var res ErrorResponse
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, pipeline.CodeInternal, res.ErrorCode)
}

func TestListBroadcasts(t *testing.T) {
	created := time.Date(2026, 3, 9, 14, 30, 0, 0, time.UTC)
	runs := &fakeRuns{runs: []store.Run{
		{
			RunID:           "run-2",
			StationID:       "bitcoin_og",
			Status:          broadcast.StatusPublished,
			AudioPath:       "/data/broadcasts/broadcast_run-2.mp3",
			QualityScore:    0.74,
			DurationSeconds: 290,
			CreatedAt:       created,
			UpdatedAt:       created,
		},
		{RunID: "run-1", StationID: "bitcoin_og", Status: broadcast.StatusFailed, ErrorCode: "voice_generation", CreatedAt: created, UpdatedAt: created},
	}}
	s := newTestServer(t, &fakeTrigger{}, runs)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/broadcasts?station_id=bitcoin_og&limit=5&offset=10", nil)
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "bitcoin_og", runs.gotFilter.StationID)
	assert.Equal(t, 5, runs.gotFilter.Limit)
	assert.Equal(t, 10, runs.gotFilter.Offset)

	var res RunListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	assert.Equal(t, 2, len(res.Runs))
	assert.Equal(t, "run-2", res.Runs[0].RunID)
	assert.Equal(t, "/audio/broadcast_run-2.mp3", res.Runs[0].AudioURL)
	assert.Equal(t, "voice_generation", res.Runs[1].ErrorCode)
}

func TestListBroadcastsDefaultLimit(t *testing.T) {
	runs := &fakeRuns{}
	s := newTestServer(t, &fakeTrigger{}, runs)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/broadcasts", nil)
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 20, runs.gotFilter.Limit)
	assert.Equal(t, 0, runs.gotFilter.Offset)
}

func TestGetBroadcastWithTimeline(t *testing.T) {
	created := time.Date(2026, 3, 9, 14, 30, 0, 0, time.UTC)
	runs := &fakeRuns{
		runs: []store.Run{{
			RunID:     "run-1",
			StationID: "bitcoin_og",
			Status:    broadcast.StatusPublished,
			Script: []broadcast.ScriptSegment{
				{Speaker: broadcast.SpeakerMarcel, Text: "welcome", Type: broadcast.SegmentIntro, Position: 0, ItemIndex: -1},
			},
			CreatedAt: created,
			UpdatedAt: created,
		}},
		events: []store.RunEvent{
			{RunID: "run-1", Stage: "collect", Detail: "9 items", CreatedAt: created},
			{RunID: "run-1", Stage: "mix", Detail: "5 of 5 target items", CreatedAt: created.Add(2 * time.Second)},
		},
	}
	s := newTestServer(t, &fakeTrigger{}, runs)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/broadcasts/run-1", nil)
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var res RunDetail
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	assert.Equal(t, "run-1", res.RunID)
	assert.Equal(t, 1, len(res.Script))
	assert.Equal(t, 2, len(res.Timeline))
	assert.Equal(t, "collect", res.Timeline[0].Stage)
	assert.Equal(t, "2026-03-09T14:30:00Z", res.Timeline[0].CreatedAt)
}

func TestGetBroadcastNotFound(t *testing.T) {
	s := newTestServer(t, &fakeTrigger{}, &fakeRuns{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/broadcasts/run-404", nil)
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListStations(t *testing.T) {
	s := newTestServer(t, &fakeTrigger{}, &fakeRuns{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/stations", nil)
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var res StationListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(res.Stations) < 5 {
		t.Fatalf("expected the built-in stations, got %d", len(res.Stations))
	}
	var bitcoinOG *StationResponse
	for i := range res.Stations {
		if res.Stations[i].ID == "bitcoin_og" {
			bitcoinOG = &res.Stations[i]
		}
	}
	if bitcoinOG == nil {
		t.Fatal("bitcoin_og missing from station list")
	}
	assert.Equal(t, "bitcoin_focus", bitcoinOG.Profile)
	assert.Equal(t, 4, len(bitcoinOG.ProfileMix))
	assert.Equal(t, "bitcoin", bitcoinOG.ProfileMix[0].Category)
	assert.Equal(t, 50, bitcoinOG.ProfileMix[0].Percent)
}

func TestHealthProbes(t *testing.T) {
	s := newTestServer(t, &fakeTrigger{}, &fakeRuns{})

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/readyz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReadyzReportsNotReady(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	catalog, err := station.NewCatalog("", logger)
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	s := NewServer(config.Default(), &fakeTrigger{}, &fakeRuns{}, catalog, func() bool { return false }, logger)

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
