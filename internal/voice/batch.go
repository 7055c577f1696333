package voice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/sync/errgroup"

	"github.com/aircast-dev/aircast/internal/broadcast"
	"github.com/aircast-dev/aircast/internal/config"
	"github.com/aircast-dev/aircast/internal/station"
)

// Engine fans segment synthesis out across a bounded worker set. Results come
// back indexed by script position regardless of completion order.
type Engine struct {
	cfg    config.VoiceConfig
	synth  Synthesizer
	logger *slog.Logger

	// newBackOff is swapped in tests to avoid real retry delays.
	newBackOff func() backoff.BackOff
}

func NewEngine(cfg config.VoiceConfig, synth Synthesizer, log *slog.Logger) *Engine {
	return &Engine{
		cfg:    cfg,
		synth:  synth,
		logger: log.With(slog.String("component", "voice-engine")),
		newBackOff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
	}
}

// Render voices every segment of a script into workDir. The batch is
// all-or-nothing: a segment that still fails after retries fails the whole
// broadcast rather than producing a show with holes in it.
func (e *Engine) Render(ctx context.Context, runID string, segments []broadcast.ScriptSegment, st station.Station, workDir string) ([]broadcast.AudioSegment, error) {
	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: no segments to voice", broadcast.ErrVoiceGeneration)
	}

	start := time.Now()
	results := make([]broadcast.AudioSegment, len(segments))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency())

	for i, seg := range segments {
		g.Go(func() error {
			clip, err := e.renderSegment(gctx, runID, seg, st, workDir)
			if err != nil {
				return fmt.Errorf("segment %d: %w", seg.Position, err)
			}
			results[i] = clip
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %v", broadcast.ErrVoiceGeneration, err)
	}

	var total float64
	for _, clip := range results {
		total += clip.DurationSeconds
	}
	e.logger.Info("voiced script",
		slog.String("run_id", runID),
		slog.Int("segments", len(results)),
		slog.Float64("audio_seconds", math.Round(total*10)/10),
		slog.Int("concurrency", e.concurrency()),
		slog.Duration("elapsed", time.Since(start)))
	return results, nil
}

func (e *Engine) renderSegment(ctx context.Context, runID string, seg broadcast.ScriptSegment, st station.Station, workDir string) (broadcast.AudioSegment, error) {
	outPath := filepath.Join(workDir, ClipName(seg))

	if seg.Speaker == broadcast.SpeakerSystem {
		return copyJingle(runID, seg, st.JinglePath, outPath)
	}

	req := SynthRequest{
		RunID:   runID,
		Segment: seg,
		Profile: st.Voice(seg.Speaker),
		OutPath: outPath,
	}

	operation := func() (broadcast.AudioSegment, error) {
		clip, err := e.synth.Synthesize(ctx, req)
		if err == nil {
			return clip, nil
		}
		var vendorErr *VendorError
		if errors.As(err, &vendorErr) && !vendorErr.Retryable() {
			return broadcast.AudioSegment{}, backoff.Permanent(err)
		}
		if ctx.Err() != nil {
			return broadcast.AudioSegment{}, backoff.Permanent(err)
		}
		e.logger.Warn("segment synthesis failed, retrying",
			slog.String("run_id", runID),
			slog.Int("position", seg.Position),
			slog.String("error", err.Error()))
		return broadcast.AudioSegment{}, err
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(e.newBackOff()),
		backoff.WithMaxTries(e.maxAttempts()))
}

// copyJingle places the station jingle at the segment position without
// touching the vendor.
func copyJingle(runID string, seg broadcast.ScriptSegment, jinglePath, outPath string) (broadcast.AudioSegment, error) {
	if jinglePath == "" {
		return broadcast.AudioSegment{}, fmt.Errorf("station has no jingle file")
	}
	in, err := os.Open(jinglePath)
	if err != nil {
		return broadcast.AudioSegment{}, fmt.Errorf("open jingle: %w", err)
	}
	defer in.Close()

	written, err := writeClip(outPath, in)
	if err != nil {
		return broadcast.AudioSegment{}, err
	}
	return broadcast.AudioSegment{
		Position:        seg.Position,
		SegmentID:       segmentID(SynthRequest{RunID: runID, Segment: seg}),
		Path:            outPath,
		DurationSeconds: float64(written) / mp3BytesPerSecond,
		Speaker:         broadcast.SpeakerSystem,
	}, nil
}

func (e *Engine) concurrency() int {
	if e.cfg.Concurrency < 2 || e.cfg.Concurrency > 4 {
		return 3
	}
	return e.cfg.Concurrency
}

func (e *Engine) maxAttempts() uint {
	if e.cfg.MaxAttempts <= 0 {
		return 3
	}
	return uint(e.cfg.MaxAttempts)
}
