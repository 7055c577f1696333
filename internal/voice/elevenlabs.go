package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aircast-dev/aircast/internal/broadcast"
	"github.com/aircast-dev/aircast/internal/config"
)

const (
	defaultEndpoint = "https://api.elevenlabs.io"
	defaultModelID  = "eleven_multilingual_v2"

	// mp3BytesPerSecond approximates a 128 kbps constant bitrate stream.
	// Exact durations come from the assembly step; this estimate is good
	// enough for manifests and logs.
	mp3BytesPerSecond = 16000
)

type elevenLabsSynthesizer struct {
	endpoint   string
	apiKey     string
	modelID    string
	httpClient *http.Client
}

// NewElevenLabsSynthesizer talks to the ElevenLabs text-to-speech API.
func NewElevenLabsSynthesizer(cfg config.VoiceConfig, apiKey string) Synthesizer {
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	modelID := cfg.ModelID
	if modelID == "" {
		modelID = defaultModelID
	}
	return &elevenLabsSynthesizer{
		endpoint:   endpoint,
		apiKey:     apiKey,
		modelID:    modelID,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// VendorError reports a non-success HTTP status from the synthesis backend.
type VendorError struct {
	StatusCode int
	Body       string
}

func (e *VendorError) Error() string {
	return fmt.Sprintf("voice backend returned %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether another attempt can succeed. Client errors other
// than rate limiting are permanent.
func (e *VendorError) Retryable() bool {
	if e.StatusCode == http.StatusTooManyRequests {
		return true
	}
	return e.StatusCode >= 500
}

type synthBody struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
	Speed           float64 `json:"speed"`
}

func (s *elevenLabsSynthesizer) Synthesize(ctx context.Context, req SynthRequest) (broadcast.AudioSegment, error) {
	payload, err := json.Marshal(synthBody{
		Text:    req.Segment.Text,
		ModelID: s.modelID,
		VoiceSettings: voiceSettings{
			Stability:       req.Profile.Stability,
			SimilarityBoost: req.Profile.SimilarityBoost,
			Style:           req.Profile.Style,
			UseSpeakerBoost: true,
			Speed:           req.Profile.Speed,
		},
	})
	if err != nil {
		return broadcast.AudioSegment{}, err
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s", s.endpoint, req.Profile.VoiceID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return broadcast.AudioSegment{}, err
	}
	httpReq.Header.Set("xi-api-key", s.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "audio/mpeg")

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return broadcast.AudioSegment{}, fmt.Errorf("voice request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return broadcast.AudioSegment{}, &VendorError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(detail))}
	}

	written, err := writeClip(req.OutPath, resp.Body)
	if err != nil {
		return broadcast.AudioSegment{}, err
	}

	return broadcast.AudioSegment{
		Position:        req.Segment.Position,
		SegmentID:       segmentID(req),
		Path:            req.OutPath,
		DurationSeconds: float64(written) / mp3BytesPerSecond,
		Speaker:         req.Segment.Speaker,
	}, nil
}

// ClipName returns the canonical per-segment filename inside a run workspace.
func ClipName(seg broadcast.ScriptSegment) string {
	return fmt.Sprintf("seg_%03d_%s.mp3", seg.Position, seg.Speaker)
}

func segmentID(req SynthRequest) string {
	return fmt.Sprintf("%s_%03d", req.RunID, req.Segment.Position)
}

func writeClip(path string, r io.Reader) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, err
	}
	out, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	written, err := io.Copy(out, r)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return 0, fmt.Errorf("write clip: %w", err)
	}
	return written, nil
}
