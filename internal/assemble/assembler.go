package assemble

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aircast-dev/aircast/internal/broadcast"
	"github.com/aircast-dev/aircast/internal/config"
	"github.com/aircast-dev/aircast/internal/station"
)

// Input carries everything the assembler needs for one broadcast.
type Input struct {
	RunID     string
	Station   station.Station
	Daypart   station.Daypart
	Script    []broadcast.ScriptSegment
	Clips     []broadcast.AudioSegment
	CoverPath string
}

// Assembler concatenates voiced clips into the final MP3, tags it, and writes
// the sidecar manifest. Per-run scratch files are removed when assembly ends,
// successful or not.
type Assembler struct {
	cfg    config.AssemblyConfig
	runner Runner
	logger *slog.Logger
	clock  func() time.Time
}

func NewAssembler(cfg config.AssemblyConfig, runner Runner, log *slog.Logger) *Assembler {
	return &Assembler{
		cfg:    cfg,
		runner: runner,
		logger: log.With(slog.String("component", "assembler")),
		clock:  time.Now,
	}
}

// RunWorkDir is the per-run scratch directory shared by synthesis and
// assembly. Everything inside it is disposable.
func RunWorkDir(cfg config.AssemblyConfig, runID string) string {
	return filepath.Join(cfg.WorkDir, runID)
}

func (a *Assembler) Assemble(ctx context.Context, in Input) (broadcast.Artifact, error) {
	if err := checkConsistency(in.Script, in.Clips); err != nil {
		return broadcast.Artifact{}, err
	}

	workDir := RunWorkDir(a.cfg, in.RunID)
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			a.logger.Warn("failed to remove run workspace",
				slog.String("run_id", in.RunID),
				slog.String("error", err.Error()))
		}
	}()

	start := a.clock()
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return broadcast.Artifact{}, err
	}
	if err := os.MkdirAll(a.cfg.OutputDir, 0o755); err != nil {
		return broadcast.Artifact{}, err
	}

	gapPath := filepath.Join(workDir, "gap.mp3")
	if err := a.renderGap(ctx, gapPath); err != nil {
		return broadcast.Artifact{}, fmt.Errorf("render gap: %w", err)
	}

	listPath := filepath.Join(workDir, "concat.txt")
	if err := writeConcatList(listPath, in.Clips, gapPath); err != nil {
		return broadcast.Artifact{}, err
	}

	audioPath := filepath.Join(a.cfg.OutputDir, fmt.Sprintf("broadcast_%s.mp3", in.RunID))
	if err := a.concat(ctx, listPath, audioPath); err != nil {
		return broadcast.Artifact{}, fmt.Errorf("concat: %w", err)
	}

	total := totalDuration(in.Clips, a.gapSeconds())

	// Tagging failures downgrade the artifact instead of losing the audio.
	coverEmbedded, err := WriteTags(audioPath, TagInfo{
		Title:     broadcastTitle(in.Station, in.Daypart, start),
		Artist:    a.cfg.Artist,
		Album:     a.cfg.Album,
		Comment:   fmt.Sprintf("Broadcast run %s", in.RunID),
		CoverPath: in.CoverPath,
	})
	if err != nil {
		a.logger.Warn("tagging failed, publishing untagged audio",
			slog.String("run_id", in.RunID),
			slog.String("error", err.Error()))
		coverEmbedded = false
	}

	effCfg := a.cfg
	effCfg.BitrateKbps = a.bitrate()
	effCfg.SampleRate = a.sampleRate()
	manifestPath := filepath.Join(a.cfg.OutputDir, fmt.Sprintf("broadcast_%s.json", in.RunID))
	manifest := buildManifest(in, effCfg, audioPath, coverEmbedded, total, a.gapSeconds(), start)
	if err := writeManifest(manifestPath, manifest); err != nil {
		return broadcast.Artifact{}, fmt.Errorf("write manifest: %w", err)
	}

	a.logger.Info("assembled broadcast",
		slog.String("run_id", in.RunID),
		slog.String("station", in.Station.ID),
		slog.Int("segments", len(in.Clips)),
		slog.Float64("duration_seconds", total),
		slog.String("output", audioPath))

	return broadcast.Artifact{
		StreamID:             in.RunID,
		StationID:            in.Station.ID,
		AudioPath:            audioPath,
		CoverPath:            in.CoverPath,
		ManifestPath:         manifestPath,
		TotalDurationSeconds: total,
		SegmentCount:         len(in.Clips),
		CoverEmbedded:        coverEmbedded,
		CreatedAt:            start.UTC(),
		Status:               broadcast.StatusAudioReady,
	}, nil
}

// checkConsistency enforces the position contract before any audio work: one
// clip per script segment, contiguous positions, every file present.
func checkConsistency(script []broadcast.ScriptSegment, clips []broadcast.AudioSegment) error {
	if len(clips) == 0 {
		return fmt.Errorf("%w: no clips", broadcast.ErrAssemblyConsistency)
	}
	if len(script) != 0 && len(clips) != len(script) {
		return fmt.Errorf("%w: %d clips for %d script segments", broadcast.ErrAssemblyConsistency, len(clips), len(script))
	}
	for i, clip := range clips {
		if clip.Position != i {
			return fmt.Errorf("%w: clip %d has position %d", broadcast.ErrAssemblyConsistency, i, clip.Position)
		}
		if _, err := os.Stat(clip.Path); err != nil {
			return fmt.Errorf("%w: clip %d missing on disk: %v", broadcast.ErrAssemblyConsistency, i, err)
		}
	}
	return nil
}

func (a *Assembler) renderGap(ctx context.Context, path string) error {
	return a.runner.Run(ctx,
		"-y",
		"-f", "lavfi",
		"-i", fmt.Sprintf("anullsrc=r=%d:cl=stereo", a.sampleRate()),
		"-t", fmt.Sprintf("%.3f", a.gapSeconds()),
		"-c:a", "libmp3lame",
		"-b:a", fmt.Sprintf("%dk", a.bitrate()),
		"-ar", fmt.Sprintf("%d", a.sampleRate()),
		path,
	)
}

func (a *Assembler) concat(ctx context.Context, listPath, outPath string) error {
	return a.runner.Run(ctx,
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c:a", "libmp3lame",
		"-b:a", fmt.Sprintf("%dk", a.bitrate()),
		"-ar", fmt.Sprintf("%d", a.sampleRate()),
		outPath,
	)
}

// writeConcatList emits the ffmpeg concat demuxer list with a gap entry
// between every pair of clips.
func writeConcatList(path string, clips []broadcast.AudioSegment, gapPath string) error {
	var b []byte
	for i, clip := range clips {
		if i > 0 {
			b = append(b, concatEntry(gapPath)...)
		}
		b = append(b, concatEntry(clip.Path)...)
	}
	return os.WriteFile(path, b, 0o644)
}

func concatEntry(path string) []byte {
	return []byte(fmt.Sprintf("file '%s'\n", path))
}

func totalDuration(clips []broadcast.AudioSegment, gapSeconds float64) float64 {
	var total float64
	for _, clip := range clips {
		total += clip.DurationSeconds
	}
	if len(clips) > 1 {
		total += gapSeconds * float64(len(clips)-1)
	}
	return total
}

func broadcastTitle(st station.Station, daypart station.Daypart, at time.Time) string {
	name := st.DisplayName
	if name == "" {
		name = st.ID
	}
	return fmt.Sprintf("%s %s Edition, %s", name, capitalize(daypart.Name), at.Format("2 January 2006"))
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

func (a *Assembler) gapSeconds() float64 {
	if a.cfg.GapMS <= 0 {
		return 0.5
	}
	return float64(a.cfg.GapMS) / 1000
}

func (a *Assembler) bitrate() int {
	if a.cfg.BitrateKbps <= 0 {
		return 128
	}
	return a.cfg.BitrateKbps
}

func (a *Assembler) sampleRate() int {
	if a.cfg.SampleRate <= 0 {
		return 44100
	}
	return a.cfg.SampleRate
}
