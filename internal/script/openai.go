package script

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/aircast-dev/aircast/internal/broadcast"
)

type openAIGenerator struct {
	client      *openai.Client
	model       openai.ChatModel
	temperature float64
	maxTokens   int
}

// NewOpenAIGenerator writes dialogue with an OpenAI chat model. One call
// covers the whole broadcast; the response must be strict JSON.
func NewOpenAIGenerator(apiKey, model string, temperature float64, maxTokens int) Generator {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &openAIGenerator{
		client:      &client,
		model:       openai.ChatModel(model),
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

type dialoguePayload struct {
	Items []struct {
		Lines []struct {
			Speaker string `json:"speaker"`
			Text    string `json:"text"`
			Emotion string `json:"emotion"`
		} `json:"lines"`
	} `json:"items"`
}

// parseDialogues decodes the strict-JSON dialogue contract shared by all
// model backends.
func parseDialogues(raw string) ([]ItemDialogue, error) {
	var parsed dialoguePayload
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse dialogue response: %w, content: %s", err, raw)
	}

	dialogues := make([]ItemDialogue, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		d := ItemDialogue{Lines: make([]DialogueLine, 0, len(item.Lines))}
		for _, line := range item.Lines {
			d.Lines = append(d.Lines, DialogueLine{
				Speaker: broadcast.Speaker(strings.ToLower(strings.TrimSpace(line.Speaker))),
				Text:    strings.TrimSpace(line.Text),
				Emotion: strings.ToLower(strings.TrimSpace(line.Emotion)),
			})
		}
		dialogues = append(dialogues, d)
	}
	return dialogues, nil
}

func (g *openAIGenerator) Generate(ctx context.Context, req Request) ([]ItemDialogue, error) {
	params := openai.ChatCompletionNewParams{
		Model: g.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt(req.Station, req.Daypart)),
			openai.UserMessage(userPrompt(req)),
		},
	}
	if g.temperature > 0 {
		params.Temperature = openai.Float(g.temperature)
	}
	if g.maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(g.maxTokens))
	}

	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from openai")
	}

	return parseDialogues(cleanJSONResponse(resp.Choices[0].Message.Content))
}
