package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/aircast-dev/aircast/internal/broadcast"
	"github.com/aircast-dev/aircast/internal/config"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func openStore(t *testing.T, cfg config.StoreConfig) *Store {
	t.Helper()
	if cfg.Path == "" {
		cfg.Path = filepath.Join(t.TempDir(), "runs.db")
	}
	s, err := Open(context.Background(), cfg, newLogger())
	if err != nil {
		t.Fatalf("open run store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRunLifecycle(t *testing.T) {
	s := openStore(t, config.StoreConfig{})
	ctx := context.Background()

	run := Run{
		RunID:      "run-1",
		StationID:  "breaking_news",
		Profile:    "balanced_news",
		Daypart:    "morning",
		TargetHour: "2025-06-01T09",
	}
	if err := s.CreateRun(ctx, run); err != nil {
		t.Fatalf("create run: %v", err)
	}

	got, err := s.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if got.Status != broadcast.StatusPending {
		t.Fatalf("expected pending status, got %v", got.Status)
	}

	script := []broadcast.ScriptSegment{
		{Speaker: broadcast.SpeakerMarcel, Text: "Good morning, here is the news.", Type: broadcast.SegmentIntro, Position: 0, ItemIndex: -1},
		{Speaker: broadcast.SpeakerJarvis, Text: "And that was it.", Type: broadcast.SegmentOutro, Position: 1, ItemIndex: -1},
	}
	if err := s.SetScript(ctx, "run-1", script, 4); err != nil {
		t.Fatalf("set script: %v", err)
	}

	got, err = s.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if got.Status != broadcast.StatusGenerated {
		t.Fatalf("expected generated status, got %v", got.Status)
	}
	if got.SegmentCount != 2 || got.ItemCount != 4 {
		t.Fatalf("unexpected counts: %+v", got)
	}
	if got.WordCount != 10 {
		t.Fatalf("expected 10 words, got %d", got.WordCount)
	}
	if len(got.Script) != 2 || got.Script[0].Speaker != broadcast.SpeakerMarcel {
		t.Fatalf("script did not round-trip: %+v", got.Script)
	}

	if err := s.SetStatus(ctx, "run-1", broadcast.StatusAudioReady); err != nil {
		t.Fatalf("set status: %v", err)
	}

	artifact := broadcast.Artifact{
		AudioPath:            "/data/broadcasts/broadcast_run-1.mp3",
		CoverPath:            "/data/broadcasts/cover_run-1.png",
		ManifestPath:         "/data/broadcasts/broadcast_run-1.json",
		TotalDurationSeconds: 612.5,
	}
	if err := s.CompleteRun(ctx, "run-1", artifact, 0.87); err != nil {
		t.Fatalf("complete run: %v", err)
	}

	got, err = s.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if got.Status != broadcast.StatusPublished {
		t.Fatalf("expected published status, got %v", got.Status)
	}
	if got.AudioPath != artifact.AudioPath || got.DurationSeconds != 612.5 || got.QualityScore != 0.87 {
		t.Fatalf("artifact fields did not persist: %+v", got)
	}
}

func TestFailRun(t *testing.T) {
	s := openStore(t, config.StoreConfig{})
	ctx := context.Background()

	if err := s.CreateRun(ctx, Run{RunID: "run-2", StationID: "bitcoin_og", TargetHour: "2025-06-01T10"}); err != nil {
		t.Fatalf("create run: %v", err)
	}
	if err := s.FailRun(ctx, "run-2", "insufficient_content", "selected 2 items, need at least 3"); err != nil {
		t.Fatalf("fail run: %v", err)
	}

	got, err := s.GetRun(ctx, "run-2")
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if got.Status != broadcast.StatusFailed || got.ErrorCode != "insufficient_content" {
		t.Fatalf("failure not recorded: %+v", got)
	}
}

func TestGetRunNotFound(t *testing.T) {
	s := openStore(t, config.StoreConfig{})
	if _, err := s.GetRun(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.SetStatus(context.Background(), "missing", broadcast.StatusFailed); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on update, got %v", err)
	}
}

func TestListRunsFilters(t *testing.T) {
	s := openStore(t, config.StoreConfig{})
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	for i, st := range []string{"breaking_news", "bitcoin_og", "breaking_news"} {
		tick := base.Add(time.Duration(i) * time.Hour)
		s.clock = func() time.Time { return tick }
		if err := s.CreateRun(ctx, Run{RunID: runID(i), StationID: st, TargetHour: tick.Format("2006-01-02T15")}); err != nil {
			t.Fatalf("create run: %v", err)
		}
	}
	s.clock = time.Now
	if err := s.FailRun(ctx, "run-0", "voice_generation", "segment 3 failed"); err != nil {
		t.Fatalf("fail run: %v", err)
	}

	runs, err := s.ListRuns(ctx, ListFilter{})
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
	if runs[0].RunID != "run-2" {
		t.Fatalf("expected newest first, got %s", runs[0].RunID)
	}

	runs, err = s.ListRuns(ctx, ListFilter{StationID: "breaking_news"})
	if err != nil {
		t.Fatalf("list by station: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 breaking_news runs, got %d", len(runs))
	}

	runs, err = s.ListRuns(ctx, ListFilter{Status: string(broadcast.StatusFailed)})
	if err != nil {
		t.Fatalf("list by status: %v", err)
	}
	if len(runs) != 1 || runs[0].RunID != "run-0" {
		t.Fatalf("expected only the failed run, got %+v", runs)
	}

	runs, err = s.ListRuns(ctx, ListFilter{Limit: 1})
	if err != nil {
		t.Fatalf("list with limit: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("limit not applied, got %d", len(runs))
	}

	runs, err = s.ListRuns(ctx, ListFilter{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("list with offset: %v", err)
	}
	if len(runs) != 1 || runs[0].RunID != "run-1" {
		t.Fatalf("offset not applied, got %+v", runs)
	}
}

func TestRunEventsTimeline(t *testing.T) {
	s := openStore(t, config.StoreConfig{})
	ctx := context.Background()

	if err := s.CreateRun(ctx, Run{RunID: "run-5", StationID: "tech_insider", TargetHour: "2025-06-01T12"}); err != nil {
		t.Fatalf("create run: %v", err)
	}
	for _, stage := range []string{"collect", "mix", "script"} {
		if err := s.AppendEvent(ctx, RunEvent{RunID: "run-5", Stage: stage, Detail: stage + " done"}); err != nil {
			t.Fatalf("append event: %v", err)
		}
	}

	events, err := s.ListRunEvents(ctx, "run-5", 10)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[0].Stage != "collect" || events[2].Stage != "script" {
		t.Fatalf("events out of order: %+v", events)
	}
}

func TestPruneByDaysAndMaxRuns(t *testing.T) {
	s := openStore(t, config.StoreConfig{RetentionDays: 1, MaxRuns: 1})
	ctx := context.Background()

	s.clock = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }
	if err := s.CreateRun(ctx, Run{RunID: "old-run", StationID: "breaking_news", TargetHour: "2025-01-01T00"}); err != nil {
		t.Fatalf("create run: %v", err)
	}
	if err := s.AppendEvent(ctx, RunEvent{RunID: "old-run", Stage: "collect"}); err != nil {
		t.Fatalf("append event: %v", err)
	}

	s.clock = func() time.Time { return time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC) }
	if err := s.CreateRun(ctx, Run{RunID: "new-run", StationID: "breaking_news", TargetHour: "2025-01-03T00"}); err != nil {
		t.Fatalf("create run: %v", err)
	}
	if err := s.Prune(ctx); err != nil {
		t.Fatalf("prune: %v", err)
	}

	if _, err := s.GetRun(ctx, "old-run"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected old run pruned, got %v", err)
	}
	if _, err := s.GetRun(ctx, "new-run"); err != nil {
		t.Fatalf("new run must survive prune: %v", err)
	}
	events, err := s.ListRunEvents(ctx, "old-run", 10)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 0 {
		t.Fatal("expected events to cascade with their run")
	}
}

func runID(i int) string {
	return "run-" + string(rune('0'+i))
}
