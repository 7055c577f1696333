package station

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aircast-dev/aircast/internal/broadcast"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestBuiltinProfilesSumTo100(t *testing.T) {
	for name, p := range BuiltinProfiles() {
		if err := p.Validate(); err != nil {
			t.Fatalf("profile %s invalid: %v", name, err)
		}
	}
}

func TestProfileValidateRejectsBadSum(t *testing.T) {
	p := ContentProfile{
		Name: "broken",
		Entries: []ProfileEntry{
			{Category: broadcast.CategoryBitcoin, Percent: 50},
			{Category: broadcast.CategoryWorld, Percent: 30},
		},
	}
	if err := p.Validate(); err == nil {
		t.Fatal("expected error for sum != 100")
	}
}

func TestProfileValidateRejectsUnknownCategory(t *testing.T) {
	p := ContentProfile{
		Name: "broken",
		Entries: []ProfileEntry{
			{Category: "astrology", Percent: 100},
		},
	}
	if err := p.Validate(); err == nil {
		t.Fatal("expected error for unknown category")
	}
}

func TestProfileValidateRejectsDuplicateCategory(t *testing.T) {
	p := ContentProfile{
		Name: "broken",
		Entries: []ProfileEntry{
			{Category: broadcast.CategoryWorld, Percent: 50},
			{Category: broadcast.CategoryWorld, Percent: 50},
		},
	}
	if err := p.Validate(); err == nil {
		t.Fatal("expected error for duplicate category")
	}
}

func TestNewCatalogBuiltins(t *testing.T) {
	c, err := NewCatalog("", newLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	st, ok := c.Get("breaking_news")
	if !ok {
		t.Fatal("expected breaking_news station")
	}
	if st.Profile != "balanced_news" {
		t.Fatalf("unexpected profile %q", st.Profile)
	}
	if len(c.List()) < 5 {
		t.Fatalf("expected at least 5 built-in stations, got %d", len(c.List()))
	}
}

func TestNewCatalogLoadsDirectory(t *testing.T) {
	dir := t.TempDir()
	body := []byte(`
id: late_night
display_name: Late Night Frequencies
tone: half asleep but sharp
energy: low
profile: entertainment
intro_style: ease into the night
outro_style: fade out slowly
voices:
  marcel:
    voice_id: abc123
    speed: 1.0
    stability: 0.7
    similarity_boost: 0.8
    style: 0.2
  jarvis:
    voice_id: def456
    speed: 1.0
    stability: 0.8
    similarity_boost: 0.7
    style: 0.1
`)
	if err := os.WriteFile(filepath.Join(dir, "late_night.yaml"), body, 0o644); err != nil {
		t.Fatalf("write station file: %v", err)
	}

	c, err := NewCatalog(dir, newLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	st, ok := c.Get("late_night")
	if !ok {
		t.Fatal("expected late_night station from directory")
	}
	if st.Voices[broadcast.SpeakerJarvis].VoiceID != "def456" {
		t.Fatalf("unexpected jarvis voice: %+v", st.Voices[broadcast.SpeakerJarvis])
	}
}

func TestNewCatalogRejectsUnknownProfileReference(t *testing.T) {
	dir := t.TempDir()
	body := []byte(`
id: broken
display_name: Broken FM
profile: does_not_exist
voices:
  marcel: {voice_id: a}
  jarvis: {voice_id: b}
`)
	if err := os.WriteFile(filepath.Join(dir, "broken.yaml"), body, 0o644); err != nil {
		t.Fatalf("write station file: %v", err)
	}
	if _, err := NewCatalog(dir, newLogger()); err == nil {
		t.Fatal("expected error for unknown profile reference")
	}
}

func TestProfileForOverride(t *testing.T) {
	c, err := NewCatalog("", newLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	st, _ := c.Get("breaking_news")

	p, err := c.ProfileFor(st, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name != "balanced_news" {
		t.Fatalf("expected station profile, got %q", p.Name)
	}

	p, err = c.ProfileFor(st, "bitcoin_focus")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name != "bitcoin_focus" {
		t.Fatalf("expected override profile, got %q", p.Name)
	}

	if _, err := c.ProfileFor(st, "nope"); err == nil {
		t.Fatal("expected error for unknown override")
	}
}

func TestDaypartFor(t *testing.T) {
	cases := []struct {
		hour int
		want string
	}{
		{6, "morning"},
		{11, "morning"},
		{12, "afternoon"},
		{16, "afternoon"},
		{17, "evening"},
		{21, "evening"},
		{22, "night"},
		{3, "night"},
	}
	for _, tc := range cases {
		at := time.Date(2025, 6, 1, tc.hour, 0, 0, 0, time.UTC)
		if got := DaypartFor(at); got.Name != tc.want {
			t.Fatalf("hour %d: expected %s, got %s", tc.hour, tc.want, got.Name)
		}
	}
}
