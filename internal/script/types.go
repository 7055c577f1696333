package script

import (
	"context"
	"fmt"
	"os"

	"github.com/aircast-dev/aircast/internal/broadcast"
	"github.com/aircast-dev/aircast/internal/config"
	"github.com/aircast-dev/aircast/internal/content"
	"github.com/aircast-dev/aircast/internal/station"
)

// DialogueLine is one model-written line of host banter.
type DialogueLine struct {
	Speaker broadcast.Speaker
	Text    string
	Emotion string
}

// ItemDialogue carries the lines written for a single content item, in
// broadcast order.
type ItemDialogue struct {
	Lines []DialogueLine
}

// Request describes one whole-broadcast dialogue generation.
type Request struct {
	Station    station.Station
	Daypart    station.Daypart
	Items      []content.Item
	LineCounts []int
}

// Generator is a pluggable dialogue backend.
type Generator interface {
	Generate(ctx context.Context, req Request) ([]ItemDialogue, error)
}

// NewGenerator builds the backend selected by config. The openai mode reads
// OPENAI_API_KEY from the environment.
func NewGenerator(cfg config.ScriptConfig) (Generator, error) {
	switch cfg.Mode {
	case "mock":
		return NewMockGenerator(), nil
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("script mode openai requires OPENAI_API_KEY")
		}
		return NewOpenAIGenerator(apiKey, cfg.Model, cfg.Temperature, cfg.MaxTokens), nil
	case "ollama":
		return NewOllamaGenerator(cfg.Endpoint, cfg.Model, cfg.Temperature, cfg.MaxTokens), nil
	default:
		return nil, fmt.Errorf("unknown script mode %q", cfg.Mode)
	}
}
