package script

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aircast-dev/aircast/internal/broadcast"
	"github.com/aircast-dev/aircast/internal/config"
	"github.com/aircast-dev/aircast/internal/content"
	"github.com/aircast-dev/aircast/internal/station"
)

// Writer turns a mixed item list into the full broadcast script: a fixed
// intro, model-written dialogue per item, and a fixed outro. Scripts are
// all-or-nothing; any generation or validation failure discards the whole
// attempt.
type Writer struct {
	cfg       config.ScriptConfig
	generator Generator
	logger    *slog.Logger
}

func NewWriter(cfg config.ScriptConfig, generator Generator, logger *slog.Logger) *Writer {
	return &Writer{
		cfg:       cfg,
		generator: generator,
		logger:    logger.With(slog.String("component", "script-writer")),
	}
}

// interactionTier decides how many dialogue lines a story earns. Hot
// categories get a real back-and-forth, filler gets a single read.
func interactionTier(c broadcast.Category) int {
	switch c {
	case broadcast.CategoryBitcoin, broadcast.CategoryTechnology, broadcast.CategoryScience:
		return 3
	case broadcast.CategoryMarkets, broadcast.CategoryWorld:
		return 2
	default:
		return 1
	}
}

// Write generates the complete segment list for one broadcast. Positions in
// the result are contiguous from zero; downstream stages rely on nothing
// else for ordering.
func (w *Writer) Write(ctx context.Context, items []content.Item, st station.Station, at time.Time) ([]broadcast.ScriptSegment, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no items to script", broadcast.ErrScriptGeneration)
	}

	timeout := time.Duration(w.cfg.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	daypart := station.DaypartFor(at)
	lineCounts := make([]int, len(items))
	for i, item := range items {
		if item.Category == broadcast.CategoryWeather {
			lineCounts[i] = 1
			continue
		}
		lineCounts[i] = interactionTier(item.Category)
	}

	start := time.Now()
	dialogues, err := w.generator.Generate(ctx, Request{
		Station:    st,
		Daypart:    daypart,
		Items:      items,
		LineCounts: lineCounts,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", broadcast.ErrScriptGeneration, err)
	}
	if err := validateDialogues(dialogues, lineCounts); err != nil {
		return nil, err
	}

	var segments []broadcast.ScriptSegment
	segments = append(segments, broadcast.ScriptSegment{
		Speaker:   broadcast.SpeakerMarcel,
		Text:      introText(st, daypart, len(items)),
		Emotion:   "warm",
		Type:      broadcast.SegmentIntro,
		ItemIndex: -1,
	})
	if st.JinglePath != "" {
		segments = append(segments, broadcast.ScriptSegment{
			Speaker:   broadcast.SpeakerSystem,
			Type:      broadcast.SegmentJingle,
			ItemIndex: -1,
		})
	}

	for i, dialogue := range dialogues {
		for j, line := range dialogue.Lines {
			seg := broadcast.ScriptSegment{
				Speaker:   line.Speaker,
				Text:      line.Text,
				Emotion:   line.Emotion,
				Type:      segmentType(items[i].Category, j),
				ItemIndex: i,
			}
			if items[i].Category == broadcast.CategoryWeather {
				// The forecast is always jarvis, whatever the model decided.
				seg.Speaker = broadcast.SpeakerJarvis
			}
			segments = append(segments, seg)
		}
	}

	segments = append(segments, broadcast.ScriptSegment{
		Speaker:   broadcast.SpeakerJarvis,
		Text:      outroText(st, daypart),
		Emotion:   "warm",
		Type:      broadcast.SegmentOutro,
		ItemIndex: -1,
	})

	wpm := w.cfg.WordsPerMinute
	if wpm <= 0 {
		wpm = 150
	}
	var totalWords int
	for i := range segments {
		segments[i].Position = i
		words := len(strings.Fields(segments[i].Text))
		totalWords += words
		segments[i].EstimatedSeconds = float64(words) * 60 / float64(wpm)
	}

	w.logger.Info("script written",
		slog.String("station", st.ID),
		slog.Int("items", len(items)),
		slog.Int("segments", len(segments)),
		slog.Int("words", totalWords),
		slog.Duration("elapsed", time.Since(start)))
	return segments, nil
}

func validateDialogues(dialogues []ItemDialogue, lineCounts []int) error {
	if len(dialogues) != len(lineCounts) {
		return fmt.Errorf("%w: generator returned %d dialogues for %d items",
			broadcast.ErrScriptGeneration, len(dialogues), len(lineCounts))
	}
	for i, dialogue := range dialogues {
		if len(dialogue.Lines) != lineCounts[i] {
			return fmt.Errorf("%w: item %d has %d lines, want %d",
				broadcast.ErrScriptGeneration, i, len(dialogue.Lines), lineCounts[i])
		}
		for j, line := range dialogue.Lines {
			if line.Speaker != broadcast.SpeakerMarcel && line.Speaker != broadcast.SpeakerJarvis {
				return fmt.Errorf("%w: item %d line %d has invalid speaker %q",
					broadcast.ErrScriptGeneration, i, j, line.Speaker)
			}
			if strings.TrimSpace(line.Text) == "" {
				return fmt.Errorf("%w: item %d line %d is empty", broadcast.ErrScriptGeneration, i, j)
			}
		}
	}
	return nil
}

func segmentType(category broadcast.Category, lineIndex int) broadcast.SegmentType {
	if category == broadcast.CategoryWeather {
		return broadcast.SegmentWeather
	}
	if lineIndex == 0 {
		return broadcast.SegmentNews
	}
	return broadcast.SegmentDiscussion
}

func greeting(daypart station.Daypart) string {
	switch daypart.Name {
	case "morning":
		return "Good morning"
	case "afternoon":
		return "Good afternoon"
	case "evening":
		return "Good evening"
	default:
		return "Hey night owls"
	}
}

func introText(st station.Station, daypart station.Daypart, itemCount int) string {
	stories := "stories"
	if itemCount == 1 {
		stories = "story"
	}
	return fmt.Sprintf("%s! You are listening to %s. %s. We have %d %s for you this %s, let's get into it.",
		greeting(daypart), st.DisplayName, st.IntroStyle, itemCount, stories, daypart.Name)
}

func outroText(st station.Station, daypart station.Daypart) string {
	return fmt.Sprintf("And that was %s for this %s. %s. Marcel and Jarvis, signing off.",
		st.DisplayName, daypart.Name, st.OutroStyle)
}
