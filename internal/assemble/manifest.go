package assemble

import (
	"encoding/json"
	"os"
	"time"

	"github.com/aircast-dev/aircast/internal/broadcast"
	"github.com/aircast-dev/aircast/internal/config"
)

// Manifest is the JSON sidecar published next to each broadcast MP3. It lets
// players and the dashboard show a segment timeline without parsing audio.
type Manifest struct {
	RunID                string            `json:"run_id"`
	StationID            string            `json:"station_id"`
	Daypart              string            `json:"daypart"`
	GeneratedAt          time.Time         `json:"generated_at"`
	AudioPath            string            `json:"audio_path"`
	CoverPath            string            `json:"cover_path,omitempty"`
	CoverEmbedded        bool              `json:"cover_embedded"`
	TotalDurationSeconds float64           `json:"total_duration_seconds"`
	GapSeconds           float64           `json:"gap_seconds"`
	BitrateKbps          int               `json:"bitrate_kbps"`
	SampleRate           int               `json:"sample_rate"`
	Segments             []ManifestSegment `json:"segments"`
}

// ManifestSegment places one clip on the broadcast timeline.
type ManifestSegment struct {
	Position        int     `json:"position"`
	Speaker         string  `json:"speaker"`
	Type            string  `json:"type"`
	Text            string  `json:"text,omitempty"`
	StartSeconds    float64 `json:"start_seconds"`
	DurationSeconds float64 `json:"duration_seconds"`
}

func buildManifest(in Input, cfg config.AssemblyConfig, audioPath string, coverEmbedded bool, total, gap float64, at time.Time) Manifest {
	segments := make([]ManifestSegment, 0, len(in.Clips))
	cursor := 0.0
	for i, clip := range in.Clips {
		seg := ManifestSegment{
			Position:        clip.Position,
			Speaker:         string(clip.Speaker),
			StartSeconds:    cursor,
			DurationSeconds: clip.DurationSeconds,
		}
		if i < len(in.Script) {
			seg.Type = string(in.Script[i].Type)
			seg.Text = in.Script[i].Text
		}
		segments = append(segments, seg)
		cursor += clip.DurationSeconds + gap
	}

	return Manifest{
		RunID:                in.RunID,
		StationID:            in.Station.ID,
		Daypart:              in.Daypart.Name,
		GeneratedAt:          at.UTC(),
		AudioPath:            audioPath,
		CoverPath:            in.CoverPath,
		CoverEmbedded:        coverEmbedded,
		TotalDurationSeconds: total,
		GapSeconds:           gap,
		BitrateKbps:          cfg.BitrateKbps,
		SampleRate:           cfg.SampleRate,
		Segments:             segments,
	}
}

func writeManifest(path string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
