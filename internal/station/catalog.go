package station

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aircast-dev/aircast/internal/broadcast"
)

// Catalog holds every station and profile known to the service. It is built
// once at startup from the built-in set plus any YAML definitions found in
// the configured directory, then handed to the pipeline explicitly.
type Catalog struct {
	stations map[string]Station
	profiles map[string]ContentProfile
}

// NewCatalog assembles the station catalog. Directory definitions override
// built-in stations with the same id. A missing directory is not an error.
func NewCatalog(dir string, logger *slog.Logger) (*Catalog, error) {
	log := logger.With(slog.String("component", "station-catalog"))

	c := &Catalog{
		stations: builtinStations(),
		profiles: BuiltinProfiles(),
	}

	if dir != "" {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read stations directory: %w", err)
			}
			log.Debug("stations directory not found, using built-ins only", slog.String("dir", dir))
		}
		for _, entry := range entries {
			if entry.IsDir() || !isYAML(entry.Name()) {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			st, err := Load(path)
			if err != nil {
				return nil, fmt.Errorf("load station %s: %w", path, err)
			}
			c.stations[st.ID] = st
			log.Info("loaded station definition", slog.String("id", st.ID), slog.String("path", path))
		}
	}

	for name, p := range c.profiles {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("profile %s: %w", name, err)
		}
	}
	for id, st := range c.stations {
		if err := Validate(st, c.profiles); err != nil {
			return nil, fmt.Errorf("station %s: %w", id, err)
		}
	}

	log.Info("station catalog ready",
		slog.Int("stations", len(c.stations)),
		slog.Int("profiles", len(c.profiles)))
	return c, nil
}

func isYAML(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

// Get returns a station by id.
func (c *Catalog) Get(id string) (Station, bool) {
	st, ok := c.stations[id]
	return st, ok
}

// List returns all stations sorted by id.
func (c *Catalog) List() []Station {
	out := make([]Station, 0, len(c.stations))
	for _, st := range c.stations {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Profile returns a content profile by name.
func (c *Catalog) Profile(name string) (ContentProfile, bool) {
	p, ok := c.profiles[name]
	return p, ok
}

// ProfileFor resolves the station's own profile, or the named override when
// one is given.
func (c *Catalog) ProfileFor(st Station, override string) (ContentProfile, error) {
	name := st.Profile
	if override != "" {
		name = override
	}
	p, ok := c.profiles[name]
	if !ok {
		return ContentProfile{}, fmt.Errorf("unknown content profile %q", name)
	}
	return p, nil
}

func defaultVoices() map[broadcast.Speaker]VoiceProfile {
	return map[broadcast.Speaker]VoiceProfile{
		broadcast.SpeakerMarcel: {
			VoiceID:         "pNInz6obpgDQGcFmaJgB",
			Speed:           1.0,
			Stability:       0.75,
			SimilarityBoost: 0.85,
			Style:           0.2,
		},
		broadcast.SpeakerJarvis: {
			VoiceID:         "ErXwobaYiN019PkySvjV",
			Speed:           1.0,
			Stability:       0.85,
			SimilarityBoost: 0.75,
			Style:           0.1,
		},
	}
}

func builtinStations() map[string]Station {
	stations := []Station{
		{
			ID:          "breaking_news",
			DisplayName: "Breaking News 24",
			Tone:        "urgent and punchy, always on top of the story",
			Energy:      "high",
			Profile:     "balanced_news",
			IntroStyle:  "The stories are moving fast and so are we",
			OutroStyle:  "More as it breaks, we never sleep",
			Voices:      defaultVoices(),
		},
		{
			ID:          "bitcoin_og",
			DisplayName: "Bitcoin OG Radio",
			Tone:        "laid-back and confident, been around since the genesis block",
			Energy:      "medium",
			Profile:     "bitcoin_focus",
			IntroStyle:  "The charts never sleep and neither do we",
			OutroStyle:  "Stay humble and stack sats",
			Voices:      defaultVoices(),
		},
		{
			ID:          "tradfi_news",
			DisplayName: "TradFi Hour",
			Tone:        "composed and analytical, markets first",
			Energy:      "medium",
			Profile:     "business_focus",
			IntroStyle:  "The numbers are in, let us walk through them",
			OutroStyle:  "Keep an eye on the open, we certainly will",
			Voices:      defaultVoices(),
		},
		{
			ID:          "zueri_style",
			DisplayName: "Zueri Style",
			Tone:        "warm and local, the city comes first",
			Energy:      "relaxed",
			Profile:     "swiss_local",
			IntroStyle:  "Gruezi Zuerich, great to have you with us",
			OutroStyle:  "Machs guet Zuerich, till next time",
			Voices:      defaultVoices(),
		},
		{
			ID:          "tech_insider",
			DisplayName: "Tech Insider",
			Tone:        "curious and sharp, excited about what ships next",
			Energy:      "high",
			Profile:     "tech_focus",
			IntroStyle:  "The future shipped a little early today",
			OutroStyle:  "Keep building, we will keep watching",
			Voices:      defaultVoices(),
		},
	}

	out := make(map[string]Station, len(stations))
	for _, st := range stations {
		out[st.ID] = st
	}
	return out
}
