package script

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aircast-dev/aircast/internal/broadcast"
	"github.com/aircast-dev/aircast/internal/config"
	"github.com/aircast-dev/aircast/internal/content"
	"github.com/aircast-dev/aircast/internal/station"
)

type fakeGenerator struct {
	dialogues []ItemDialogue
	err       error
}

func (f *fakeGenerator) Generate(ctx context.Context, req Request) ([]ItemDialogue, error) {
	return f.dialogues, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testStation() station.Station {
	return station.Station{
		ID:          "breaking_news",
		DisplayName: "Breaking News 24",
		Tone:        "urgent",
		Profile:     "balanced_news",
		IntroStyle:  "The stories are moving fast",
		OutroStyle:  "More as it breaks",
	}
}

func testItems() []content.Item {
	return []content.Item{
		{Category: broadcast.CategoryBitcoin, Title: "Bitcoin crosses 64k", Summary: "Price moved."},
		{Category: broadcast.CategoryWorld, Title: "Summit concludes", Summary: "Leaders met."},
		{Category: broadcast.CategoryWeather, Title: "Weather in Zurich", Summary: "18 degrees and clear."},
	}
}

func scriptConfig() config.ScriptConfig {
	return config.ScriptConfig{Mode: "mock", WordsPerMinute: 150, TimeoutMS: 5000}
}

func TestWriteStructure(t *testing.T) {
	w := NewWriter(scriptConfig(), NewMockGenerator(), testLogger())
	at := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	segments, err := w.Write(context.Background(), testItems(), testStation(), at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// intro + 3 bitcoin lines + 2 world lines + 1 weather line + outro
	if len(segments) != 8 {
		t.Fatalf("expected 8 segments, got %d", len(segments))
	}
	for i, seg := range segments {
		if seg.Position != i {
			t.Fatalf("positions not contiguous: segment %d has position %d", i, seg.Position)
		}
	}
	if segments[0].Type != broadcast.SegmentIntro || segments[0].Speaker != broadcast.SpeakerMarcel {
		t.Fatalf("unexpected intro segment: %+v", segments[0])
	}
	if segments[0].ItemIndex != -1 {
		t.Fatalf("intro must not reference an item, got %d", segments[0].ItemIndex)
	}
	last := segments[len(segments)-1]
	if last.Type != broadcast.SegmentOutro || last.Speaker != broadcast.SpeakerJarvis {
		t.Fatalf("unexpected outro segment: %+v", last)
	}

	// First line of a story is a news read, follow-ups are discussion.
	if segments[1].Type != broadcast.SegmentNews {
		t.Fatalf("expected news type for first line, got %v", segments[1].Type)
	}
	if segments[2].Type != broadcast.SegmentDiscussion || segments[3].Type != broadcast.SegmentDiscussion {
		t.Fatalf("expected discussion for follow-up lines")
	}
	if segments[1].ItemIndex != 0 || segments[4].ItemIndex != 1 {
		t.Fatalf("unexpected item attribution: %d, %d", segments[1].ItemIndex, segments[4].ItemIndex)
	}

	weather := segments[6]
	if weather.Type != broadcast.SegmentWeather {
		t.Fatalf("expected weather segment, got %v", weather.Type)
	}
	if weather.Speaker != broadcast.SpeakerJarvis {
		t.Fatalf("weather must be voiced by jarvis, got %v", weather.Speaker)
	}

	for _, seg := range segments {
		if seg.Text != "" && seg.EstimatedSeconds <= 0 {
			t.Fatalf("expected positive estimate for %q", seg.Text)
		}
	}
}

func TestWriteIncludesJingleAfterIntro(t *testing.T) {
	st := testStation()
	st.JinglePath = "/audio/jingle.mp3"
	w := NewWriter(scriptConfig(), NewMockGenerator(), testLogger())

	segments, err := w.Write(context.Background(), testItems(), st, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if segments[1].Type != broadcast.SegmentJingle || segments[1].Speaker != broadcast.SpeakerSystem {
		t.Fatalf("expected jingle after intro, got %+v", segments[1])
	}
}

func TestWriteFailsWhole(t *testing.T) {
	w := NewWriter(scriptConfig(), &fakeGenerator{err: errors.New("model unavailable")}, testLogger())

	segments, err := w.Write(context.Background(), testItems(), testStation(), time.Now())
	if !errors.Is(err, broadcast.ErrScriptGeneration) {
		t.Fatalf("expected ErrScriptGeneration, got %v", err)
	}
	if segments != nil {
		t.Fatal("expected no partial script")
	}
}

func TestWriteRejectsLineCountMismatch(t *testing.T) {
	gen := &fakeGenerator{dialogues: []ItemDialogue{
		{Lines: []DialogueLine{{Speaker: broadcast.SpeakerMarcel, Text: "only one line"}}}, // wants 3
		{Lines: []DialogueLine{{Speaker: broadcast.SpeakerMarcel, Text: "a"}, {Speaker: broadcast.SpeakerJarvis, Text: "b"}}},
		{Lines: []DialogueLine{{Speaker: broadcast.SpeakerJarvis, Text: "weather"}}},
	}}
	w := NewWriter(scriptConfig(), gen, testLogger())

	_, err := w.Write(context.Background(), testItems(), testStation(), time.Now())
	if !errors.Is(err, broadcast.ErrScriptGeneration) {
		t.Fatalf("expected ErrScriptGeneration for count mismatch, got %v", err)
	}
}

func TestWriteRejectsInvalidSpeaker(t *testing.T) {
	lines := func(n int, bad int) []DialogueLine {
		out := make([]DialogueLine, n)
		for i := range out {
			speaker := broadcast.SpeakerMarcel
			if i == bad {
				speaker = "narrator"
			}
			out[i] = DialogueLine{Speaker: speaker, Text: "text"}
		}
		return out
	}
	gen := &fakeGenerator{dialogues: []ItemDialogue{
		{Lines: lines(3, 1)},
		{Lines: lines(2, -1)},
		{Lines: lines(1, -1)},
	}}
	w := NewWriter(scriptConfig(), gen, testLogger())

	_, err := w.Write(context.Background(), testItems(), testStation(), time.Now())
	if !errors.Is(err, broadcast.ErrScriptGeneration) {
		t.Fatalf("expected ErrScriptGeneration for invalid speaker, got %v", err)
	}
}

func TestWriteRejectsEmptyItems(t *testing.T) {
	w := NewWriter(scriptConfig(), NewMockGenerator(), testLogger())
	if _, err := w.Write(context.Background(), nil, testStation(), time.Now()); !errors.Is(err, broadcast.ErrScriptGeneration) {
		t.Fatalf("expected ErrScriptGeneration, got %v", err)
	}
}

func TestInteractionTiers(t *testing.T) {
	cases := map[broadcast.Category]int{
		broadcast.CategoryBitcoin:       3,
		broadcast.CategoryTechnology:    3,
		broadcast.CategoryScience:       3,
		broadcast.CategoryMarkets:       2,
		broadcast.CategoryWorld:         2,
		broadcast.CategoryLocal:         1,
		broadcast.CategorySport:         1,
		broadcast.CategoryEntertainment: 1,
	}
	for cat, want := range cases {
		if got := interactionTier(cat); got != want {
			t.Fatalf("category %s: expected tier %d, got %d", cat, want, got)
		}
	}
}

func TestCleanJSONResponse(t *testing.T) {
	in := "```json\n{\"items\": []}\n```"
	if got := cleanJSONResponse(in); got != `{"items": []}` {
		t.Fatalf("unexpected cleaned content: %q", got)
	}
	in = "Sure, here is the dialogue:\n{\"items\": [{\"lines\": []}]}\nHope that helps!"
	if got := cleanJSONResponse(in); got != `{"items": [{"lines": []}]}` {
		t.Fatalf("unexpected cleaned content: %q", got)
	}
}
