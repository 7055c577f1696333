package script

import (
	"context"
	"fmt"

	"github.com/aircast-dev/aircast/internal/broadcast"
)

type mockGenerator struct{}

// NewMockGenerator returns deterministic dialogue for development and tests.
func NewMockGenerator() Generator {
	return &mockGenerator{}
}

func (m *mockGenerator) Generate(ctx context.Context, req Request) ([]ItemDialogue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dialogues := make([]ItemDialogue, 0, len(req.Items))
	for i, item := range req.Items {
		count := req.LineCounts[i]
		d := ItemDialogue{Lines: make([]DialogueLine, 0, count)}
		for j := 0; j < count; j++ {
			speaker := broadcast.SpeakerMarcel
			if j%2 == 1 {
				speaker = broadcast.SpeakerJarvis
			}
			text := fmt.Sprintf("Here is the story on %s.", item.Title)
			if j > 0 {
				text = fmt.Sprintf("Good point about %s, let me add one thing.", item.Title)
			}
			if item.Category == broadcast.CategoryWeather {
				speaker = broadcast.SpeakerJarvis
				text = item.Summary
			}
			d.Lines = append(d.Lines, DialogueLine{Speaker: speaker, Text: text, Emotion: "neutral"})
		}
		dialogues = append(dialogues, d)
	}
	return dialogues, nil
}
