package voice

import (
	"context"
	"fmt"
	"os"

	"github.com/aircast-dev/aircast/internal/broadcast"
	"github.com/aircast-dev/aircast/internal/config"
	"github.com/aircast-dev/aircast/internal/station"
)

// SynthRequest asks for one script segment rendered as an MP3 clip on disk.
type SynthRequest struct {
	RunID   string
	Segment broadcast.ScriptSegment
	Profile station.VoiceProfile
	OutPath string
}

// Synthesizer renders a single segment. Implementations write the clip to
// req.OutPath and report the resulting audio segment.
type Synthesizer interface {
	Synthesize(ctx context.Context, req SynthRequest) (broadcast.AudioSegment, error)
}

// NewSynthesizer builds the backend selected by config. The elevenlabs mode
// reads ELEVENLABS_API_KEY from the environment.
func NewSynthesizer(cfg config.VoiceConfig) (Synthesizer, error) {
	switch cfg.Mode {
	case "mock":
		return NewMockSynthesizer(), nil
	case "elevenlabs":
		apiKey := os.Getenv("ELEVENLABS_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("voice mode elevenlabs requires ELEVENLABS_API_KEY")
		}
		return NewElevenLabsSynthesizer(cfg, apiKey), nil
	default:
		return nil, fmt.Errorf("unknown voice mode %q", cfg.Mode)
	}
}
