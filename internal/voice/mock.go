package voice

import (
	"bytes"
	"context"

	"github.com/aircast-dev/aircast/internal/broadcast"
)

// mockFrame is a minimal MPEG-1 Layer III frame header followed by padding,
// enough for downstream tooling to recognize the file as MP3.
var mockFrame = append([]byte{0xFF, 0xFB, 0x90, 0x00}, make([]byte, 412)...)

type mockSynthesizer struct{}

// NewMockSynthesizer writes placeholder clips without calling any vendor.
func NewMockSynthesizer() Synthesizer {
	return &mockSynthesizer{}
}

func (m *mockSynthesizer) Synthesize(ctx context.Context, req SynthRequest) (broadcast.AudioSegment, error) {
	if err := ctx.Err(); err != nil {
		return broadcast.AudioSegment{}, err
	}
	if _, err := writeClip(req.OutPath, bytes.NewReader(mockFrame)); err != nil {
		return broadcast.AudioSegment{}, err
	}
	duration := req.Segment.EstimatedSeconds
	if duration <= 0 {
		duration = 1
	}
	return broadcast.AudioSegment{
		Position:        req.Segment.Position,
		SegmentID:       segmentID(req),
		Path:            req.OutPath,
		DurationSeconds: duration,
		Speaker:         req.Segment.Speaker,
	}, nil
}
