package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/aircast-dev/aircast/internal/broadcast"
	"github.com/aircast-dev/aircast/internal/config"
	"github.com/aircast-dev/aircast/internal/station"
)

func TestElevenLabsSynthesize(t *testing.T) {
	audio := bytes.Repeat([]byte{0xAB}, 32000) // two seconds at 128 kbps

	var gotPath, gotKey string
	var gotBody synthBody
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("xi-api-key")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write(audio)
	}))
	defer server.Close()

	synth := NewElevenLabsSynthesizer(config.VoiceConfig{Endpoint: server.URL, TimeoutMS: 5000}, "test-key")
	outPath := filepath.Join(t.TempDir(), "seg_002_marcel.mp3")
	clip, err := synth.Synthesize(context.Background(), SynthRequest{
		RunID: "run-1",
		Segment: broadcast.ScriptSegment{
			Speaker:  broadcast.SpeakerMarcel,
			Text:     "Here is the story.",
			Position: 2,
		},
		Profile: station.VoiceProfile{VoiceID: "voice-abc", Speed: 1.0, Stability: 0.75, SimilarityBoost: 0.85, Style: 0.2},
		OutPath: outPath,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/v1/text-to-speech/voice-abc" {
		t.Fatalf("unexpected request path %q", gotPath)
	}
	if gotKey != "test-key" {
		t.Fatalf("unexpected api key header %q", gotKey)
	}
	if gotBody.ModelID != "eleven_multilingual_v2" {
		t.Fatalf("unexpected model id %q", gotBody.ModelID)
	}
	if gotBody.VoiceSettings.Stability != 0.75 || !gotBody.VoiceSettings.UseSpeakerBoost {
		t.Fatalf("unexpected voice settings: %+v", gotBody.VoiceSettings)
	}

	if clip.Position != 2 || clip.Speaker != broadcast.SpeakerMarcel {
		t.Fatalf("unexpected clip metadata: %+v", clip)
	}
	if clip.DurationSeconds != 2.0 {
		t.Fatalf("expected 2s duration estimate, got %f", clip.DurationSeconds)
	}
	written, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("reading clip: %v", err)
	}
	if !bytes.Equal(written, audio) {
		t.Fatalf("clip bytes do not match response (%d vs %d)", len(written), len(audio))
	}
}

func TestElevenLabsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"invalid api key"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	synth := NewElevenLabsSynthesizer(config.VoiceConfig{Endpoint: server.URL}, "bad-key")
	_, err := synth.Synthesize(context.Background(), SynthRequest{
		Segment: broadcast.ScriptSegment{Text: "hello"},
		Profile: station.VoiceProfile{VoiceID: "voice-abc"},
		OutPath: filepath.Join(t.TempDir(), "out.mp3"),
	})

	var vendorErr *VendorError
	if !errors.As(err, &vendorErr) {
		t.Fatalf("expected VendorError, got %v", err)
	}
	if vendorErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unexpected status %d", vendorErr.StatusCode)
	}
	if vendorErr.Retryable() {
		t.Fatal("auth failures must not be retried")
	}
}

func TestVendorErrorRetryable(t *testing.T) {
	cases := []struct {
		status int
		want   bool
	}{
		{http.StatusTooManyRequests, true},
		{http.StatusInternalServerError, true},
		{http.StatusBadGateway, true},
		{http.StatusBadRequest, false},
		{http.StatusUnprocessableEntity, false},
	}
	for _, tc := range cases {
		e := &VendorError{StatusCode: tc.status}
		if got := e.Retryable(); got != tc.want {
			t.Fatalf("status %d: expected retryable=%v, got %v", tc.status, tc.want, got)
		}
	}
}

func TestClipName(t *testing.T) {
	seg := broadcast.ScriptSegment{Position: 7, Speaker: broadcast.SpeakerJarvis}
	if got := ClipName(seg); got != "seg_007_jarvis.mp3" {
		t.Fatalf("unexpected clip name %q", got)
	}
}
