package station

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aircast-dev/aircast/internal/broadcast"
)

// VoiceProfile carries the synthesis settings for one host voice.
type VoiceProfile struct {
	VoiceID         string  `yaml:"voice_id"`
	Speed           float64 `yaml:"speed"`
	Stability       float64 `yaml:"stability"`
	SimilarityBoost float64 `yaml:"similarity_boost"`
	Style           float64 `yaml:"style"`
}

// Station bundles the on-air identity of a broadcast: tone, content profile,
// host voices, and fixed intro/outro phrasing. Stations are immutable after
// load; the pipeline receives them by value.
type Station struct {
	ID          string                             `yaml:"id"`
	DisplayName string                             `yaml:"display_name"`
	Tone        string                             `yaml:"tone"`
	Energy      string                             `yaml:"energy"`
	Profile     string                             `yaml:"profile"`
	IntroStyle  string                             `yaml:"intro_style"`
	OutroStyle  string                             `yaml:"outro_style"`
	JinglePath  string                             `yaml:"jingle_path,omitempty"`
	Voices      map[broadcast.Speaker]VoiceProfile `yaml:"voices"`
}

// Load reads a station definition from disk.
func Load(path string) (Station, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Station{}, err
	}
	var st Station
	if err := yaml.Unmarshal(data, &st); err != nil {
		return Station{}, err
	}
	return st, nil
}

// Validate ensures a station definition is complete enough to broadcast.
func Validate(st Station, profiles map[string]ContentProfile) error {
	if st.ID == "" {
		return fmt.Errorf("station id is required")
	}
	if st.DisplayName == "" {
		return fmt.Errorf("station %s: display_name is required", st.ID)
	}
	if st.Profile == "" {
		return fmt.Errorf("station %s: profile is required", st.ID)
	}
	if _, ok := profiles[st.Profile]; !ok {
		return fmt.Errorf("station %s: unknown profile %q", st.ID, st.Profile)
	}
	for _, speaker := range []broadcast.Speaker{broadcast.SpeakerMarcel, broadcast.SpeakerJarvis} {
		voice, ok := st.Voices[speaker]
		if !ok {
			return fmt.Errorf("station %s: missing voice for %s", st.ID, speaker)
		}
		if voice.VoiceID == "" {
			return fmt.Errorf("station %s: empty voice_id for %s", st.ID, speaker)
		}
	}
	return nil
}

// Voice returns the profile for a speaker, falling back to marcel's voice so
// a misconfigured speaker never silently drops a line.
func (st Station) Voice(speaker broadcast.Speaker) VoiceProfile {
	if v, ok := st.Voices[speaker]; ok {
		return v
	}
	return st.Voices[broadcast.SpeakerMarcel]
}
