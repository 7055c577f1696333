package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/aircast-dev/aircast/internal/assemble"
	"github.com/aircast-dev/aircast/internal/broadcast"
	"github.com/aircast-dev/aircast/internal/config"
	"github.com/aircast-dev/aircast/internal/content"
	"github.com/aircast-dev/aircast/internal/cover"
	"github.com/aircast-dev/aircast/internal/protocol"
	"github.com/aircast-dev/aircast/internal/station"
	"github.com/aircast-dev/aircast/internal/store"
)

// Request asks for one broadcast.
type Request struct {
	StationID             string
	TargetDurationMinutes int
	ProfileOverride       string
}

// Result summarizes a published broadcast.
type Result struct {
	RunID        string
	Station      station.Station
	Artifact     broadcast.Artifact
	ItemCount    int
	SegmentCount int
	QualityScore float64
	Phases       []string
	Elapsed      time.Duration
}

// Narrow views of the pipeline's collaborators, one per stage, so tests can
// drive the orchestrator without sqlite, NATS, or vendors.
type (
	Collector interface {
		Collect(ctx context.Context) ([]content.Item, []*content.CollectionError)
	}
	ScriptWriter interface {
		Write(ctx context.Context, items []content.Item, st station.Station, at time.Time) ([]broadcast.ScriptSegment, error)
	}
	VoiceRenderer interface {
		Render(ctx context.Context, runID string, segments []broadcast.ScriptSegment, st station.Station, workDir string) ([]broadcast.AudioSegment, error)
	}
	CoverMaker interface {
		Create(ctx context.Context, req cover.Request) (string, error)
	}
	AudioAssembler interface {
		Assemble(ctx context.Context, in assemble.Input) (broadcast.Artifact, error)
	}
	RunStore interface {
		CreateRun(ctx context.Context, run store.Run) error
		SetScript(ctx context.Context, runID string, script []broadcast.ScriptSegment, itemCount int) error
		SetStatus(ctx context.Context, runID string, status broadcast.Status) error
		CompleteRun(ctx context.Context, runID string, artifact broadcast.Artifact, quality float64) error
		FailRun(ctx context.Context, runID, code, message string) error
		AppendEvent(ctx context.Context, evt store.RunEvent) error
	}
	EventPublisher interface {
		PublishEvent(subject string, payload any) error
	}
)

// Deps bundles the orchestrator's collaborators.
type Deps struct {
	Catalog   *station.Catalog
	Collector Collector
	Writer    ScriptWriter
	Voices    VoiceRenderer
	Covers    CoverMaker
	Assembler AudioAssembler
	Store     RunStore
	Events    EventPublisher
}

// Orchestrator drives a broadcast request through collect, mix, script,
// voice, cover, assemble, and publish. One orchestrator serves the whole
// process; per-fingerprint gating and the run semaphore live here.
type Orchestrator struct {
	cfg     config.Config
	deps    Deps
	logger  *slog.Logger
	metrics *runMetrics

	clock    func() time.Time
	newRunID func() string

	sem      *semaphore.Weighted
	mu       sync.Mutex
	inFlight map[string]struct{}
}

func New(cfg config.Config, deps Deps, log *slog.Logger) *Orchestrator {
	maxRuns := cfg.Pipeline.MaxConcurrentRuns
	if maxRuns <= 0 {
		maxRuns = 2
	}
	logger := log.With(slog.String("component", "pipeline"))
	return &Orchestrator{
		cfg:      cfg,
		deps:     deps,
		logger:   logger,
		metrics:  newRunMetrics(logger),
		clock:    time.Now,
		newRunID: uuid.NewString,
		sem:      semaphore.NewWeighted(int64(maxRuns)),
		inFlight: make(map[string]struct{}),
	}
}

// fingerprint identifies "this station, this hour". Two runs with the same
// fingerprint would produce near-identical shows, so the second is rejected.
func fingerprint(stationID string, at time.Time) string {
	return stationID + ":" + at.UTC().Format("2006-01-02T15")
}

func (o *Orchestrator) acquire(fp string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, busy := o.inFlight[fp]; busy {
		return false
	}
	o.inFlight[fp] = struct{}{}
	return true
}

func (o *Orchestrator) release(fp string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.inFlight, fp)
}

// Run executes one broadcast request end to end.
func (o *Orchestrator) Run(ctx context.Context, req Request) (Result, error) {
	start := o.clock()

	st, ok := o.deps.Catalog.Get(req.StationID)
	if !ok {
		return Result{}, &RunError{
			Code:    CodeUnknownStation,
			Message: fmt.Sprintf("unknown station %q", req.StationID),
		}
	}
	profile, err := o.deps.Catalog.ProfileFor(st, req.ProfileOverride)
	if err != nil {
		return Result{}, &RunError{Code: CodeInvalidRequest, Message: err.Error(), cause: err}
	}

	daypart := station.DaypartFor(start)
	minutes := req.TargetDurationMinutes
	if minutes <= 0 {
		minutes = daypart.TargetMinutes
	}
	if minutes <= 0 {
		minutes = o.cfg.Pipeline.DefaultDurationMinutes
	}
	if minutes <= 0 {
		minutes = 10
	}

	fp := fingerprint(st.ID, start)
	if !o.acquire(fp) {
		return Result{}, &RunError{
			Code:          CodeRunInProgress,
			Message:       fmt.Sprintf("a broadcast for %s is already running for hour %s", st.ID, start.UTC().Format("15:00 MST")),
			RetryPossible: true,
			cause:         broadcast.ErrRunInProgress,
		}
	}
	defer o.release(fp)

	if err := o.sem.Acquire(ctx, 1); err != nil {
		return Result{}, &RunError{
			Code:          CodeInternal,
			Message:       "cancelled while waiting for a run slot",
			RetryPossible: true,
			cause:         err,
		}
	}
	defer o.sem.Release(1)

	outcome := "failed"
	defer func() {
		o.metrics.recordRun(context.WithoutCancel(ctx), st.ID, outcome, o.clock().Sub(start).Seconds())
	}()

	runID := o.newRunID()
	logger := o.logger.With(slog.String("run_id", runID), slog.String("station", st.ID))
	logger.Info("run accepted",
		slog.String("profile", profile.Name),
		slog.String("daypart", daypart.Name),
		slog.Int("minutes", minutes))

	o.publish(protocol.SubjectRunRequested, protocol.RunRequested{
		RunID:     runID,
		StationID: st.ID,
		Minutes:   minutes,
		Profile:   req.ProfileOverride,
		Timestamp: o.clock().UTC(),
	})

	if err := o.deps.Store.CreateRun(ctx, store.Run{
		RunID:      runID,
		StationID:  st.ID,
		Profile:    profile.Name,
		Daypart:    daypart.Name,
		TargetHour: start.UTC().Format("2006-01-02T15"),
	}); err != nil {
		return Result{}, o.fail(ctx, logger, runID, st.ID, nil, CodeInternal, err, true)
	}
	o.publish(protocol.SubjectRunStarted, protocol.RunStarted{RunID: runID, StationID: st.ID, Timestamp: o.clock().UTC()})

	var phases []string

	// collect
	stageStart := o.clock()
	items, sourceFailures := o.deps.Collector.Collect(ctx)
	phases = append(phases, protocol.StageCollect)
	o.stageDone(ctx, runID, st.ID, protocol.StageCollect, stageStart,
		fmt.Sprintf("%d items, %d sources degraded", len(items), len(sourceFailures)))

	// mix
	stageStart = o.clock()
	targetTotal := minutes / 4
	if targetTotal < 3 {
		targetTotal = 3
	}
	mixed, err := content.Mix(items, profile, targetTotal, o.cfg.Mixer.MinViableItems)
	if err != nil {
		if errors.Is(err, broadcast.ErrInsufficientContent) {
			return Result{}, o.fail(ctx, logger, runID, st.ID, phases, CodeInsufficientContent, err, false)
		}
		return Result{}, o.fail(ctx, logger, runID, st.ID, phases, CodeInvalidRequest, err, false)
	}
	phases = append(phases, protocol.StageMix)
	o.stageDone(ctx, runID, st.ID, protocol.StageMix, stageStart,
		fmt.Sprintf("%d of %d target items", len(mixed), targetTotal))

	// script
	stageStart = o.clock()
	segments, err := o.deps.Writer.Write(ctx, mixed, st, start)
	if err != nil {
		return Result{}, o.fail(ctx, logger, runID, st.ID, phases, CodeScriptGeneration, err, false)
	}
	if err := o.deps.Store.SetScript(ctx, runID, segments, len(mixed)); err != nil {
		return Result{}, o.fail(ctx, logger, runID, st.ID, phases, CodeInternal, err, true)
	}
	phases = append(phases, protocol.StageScript)
	o.stageDone(ctx, runID, st.ID, protocol.StageScript, stageStart,
		fmt.Sprintf("%d segments", len(segments)))

	// voice and cover run side by side; only voice can fail the run
	stageStart = o.clock()
	workDir := assemble.RunWorkDir(o.cfg.Assembly, runID)
	var clips []broadcast.AudioSegment
	var coverPath string

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var renderErr error
		clips, renderErr = o.deps.Voices.Render(gctx, runID, segments, st, workDir)
		return renderErr
	})
	g.Go(func() error {
		path, coverErr := o.deps.Covers.Create(gctx, cover.Request{
			RunID:    runID,
			Station:  st,
			Daypart:  daypart,
			Dominant: content.DominantCategory(mixed, profile),
			At:       start,
			OutDir:   o.cfg.Assembly.OutputDir,
		})
		if coverErr != nil {
			logger.Warn("cover unavailable, continuing without art",
				slog.String("error", coverErr.Error()))
			return nil
		}
		coverPath = path
		return nil
	})
	if err := g.Wait(); err != nil {
		return Result{}, o.fail(ctx, logger, runID, st.ID, phases, CodeVoiceGeneration, err, true)
	}
	phases = append(phases, protocol.StageVoice)
	o.stageDone(ctx, runID, st.ID, protocol.StageVoice, stageStart,
		fmt.Sprintf("%d clips", len(clips)))
	phases = append(phases, protocol.StageCover)
	o.stageDone(ctx, runID, st.ID, protocol.StageCover, stageStart, coverDetail(coverPath))

	// assemble
	stageStart = o.clock()
	artifact, err := o.deps.Assembler.Assemble(ctx, assemble.Input{
		RunID:     runID,
		Station:   st,
		Daypart:   daypart,
		Script:    segments,
		Clips:     clips,
		CoverPath: coverPath,
	})
	if err != nil {
		if errors.Is(err, broadcast.ErrAssemblyConsistency) {
			return Result{}, o.fail(ctx, logger, runID, st.ID, phases, CodeAssemblyConsistency, err, false)
		}
		return Result{}, o.fail(ctx, logger, runID, st.ID, phases, CodeInternal, err, true)
	}
	if err := o.deps.Store.SetStatus(ctx, runID, broadcast.StatusAudioReady); err != nil {
		return Result{}, o.fail(ctx, logger, runID, st.ID, phases, CodeInternal, err, true)
	}
	phases = append(phases, protocol.StageAssemble)
	o.stageDone(ctx, runID, st.ID, protocol.StageAssemble, stageStart,
		fmt.Sprintf("%.1fs of audio", artifact.TotalDurationSeconds))

	// publish
	stageStart = o.clock()
	quality := qualityScore(mixed)
	if err := o.deps.Store.CompleteRun(ctx, runID, artifact, quality); err != nil {
		return Result{}, o.fail(ctx, logger, runID, st.ID, phases, CodeInternal, err, true)
	}
	artifact.Status = broadcast.StatusPublished
	phases = append(phases, protocol.StagePublish)
	o.stageDone(ctx, runID, st.ID, protocol.StagePublish, stageStart, "run published")
	o.publish(protocol.SubjectRunCompleted, protocol.RunCompleted{
		RunID:           runID,
		StationID:       st.ID,
		AudioPath:       artifact.AudioPath,
		CoverPath:       artifact.CoverPath,
		DurationSeconds: artifact.TotalDurationSeconds,
		SegmentCount:    artifact.SegmentCount,
		QualityScore:    quality,
		Timestamp:       o.clock().UTC(),
	})

	outcome = "published"
	elapsed := o.clock().Sub(start)
	logger.Info("run published",
		slog.Int("items", len(mixed)),
		slog.Int("segments", artifact.SegmentCount),
		slog.Float64("duration_seconds", artifact.TotalDurationSeconds),
		slog.Float64("quality", quality),
		slog.Duration("elapsed", elapsed))

	return Result{
		RunID:        runID,
		Station:      st,
		Artifact:     artifact,
		ItemCount:    len(mixed),
		SegmentCount: artifact.SegmentCount,
		QualityScore: quality,
		Phases:       phases,
		Elapsed:      elapsed,
	}, nil
}

func coverDetail(path string) string {
	if path == "" {
		return "no cover"
	}
	return "cover ready"
}

// stageDone records one finished stage in the run timeline and on the bus.
func (o *Orchestrator) stageDone(ctx context.Context, runID, stationID, stage string, started time.Time, detail string) {
	if err := o.deps.Store.AppendEvent(ctx, store.RunEvent{RunID: runID, Stage: stage, Detail: detail}); err != nil {
		o.logger.Warn("failed to append run event",
			slog.String("run_id", runID),
			slog.String("stage", stage),
			slog.String("error", err.Error()))
	}
	o.publish(protocol.SubjectRunStage, protocol.RunStage{
		RunID:     runID,
		StationID: stationID,
		Stage:     stage,
		Detail:    detail,
		ElapsedMS: o.clock().Sub(started).Milliseconds(),
		Timestamp: o.clock().UTC(),
	})
}

// fail stamps the run record, emits the failure event, and builds the
// outward RunError. Bookkeeping uses a detached context so a cancelled run
// still leaves an accurate record behind.
func (o *Orchestrator) fail(ctx context.Context, logger *slog.Logger, runID, stationID string, phases []string, code string, cause error, retry bool) error {
	bctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := o.deps.Store.FailRun(bctx, runID, code, cause.Error()); err != nil {
		logger.Warn("failed to record run failure", slog.String("error", err.Error()))
	}
	if err := o.deps.Store.AppendEvent(bctx, store.RunEvent{RunID: runID, Stage: "failed", Detail: code + ": " + cause.Error()}); err != nil {
		logger.Warn("failed to append failure event", slog.String("error", err.Error()))
	}
	o.publish(protocol.SubjectRunFailed, protocol.RunFailed{
		RunID:           runID,
		StationID:       stationID,
		Code:            code,
		Message:         cause.Error(),
		PhasesCompleted: phases,
		RetryPossible:   retry,
		Timestamp:       o.clock().UTC(),
	})
	logger.Error("run failed",
		slog.String("code", code),
		slog.String("error", cause.Error()),
		slog.Bool("retry_possible", retry))

	return &RunError{
		Code:            code,
		Message:         cause.Error(),
		PhasesCompleted: phases,
		RetryPossible:   retry,
		cause:           cause,
	}
}

func (o *Orchestrator) publish(subject string, payload any) {
	if !o.cfg.Pipeline.PublishEvents || o.deps.Events == nil {
		return
	}
	if err := o.deps.Events.PublishEvent(subject, payload); err != nil {
		o.logger.Warn("failed to publish run event",
			slog.String("subject", subject),
			slog.String("error", err.Error()))
	}
}
