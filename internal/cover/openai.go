package cover

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/aircast-dev/aircast/internal/broadcast"
	"github.com/aircast-dev/aircast/internal/config"
)

type openAIGenerator struct {
	client     *openai.Client
	model      openai.ImageModel
	size       openai.ImageGenerateParamsSize
	httpClient *http.Client
}

func newOpenAIGenerator(cfg config.CoverConfig, apiKey string) *openAIGenerator {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	model := openai.ImageModelDallE3
	if cfg.Model != "" {
		model = openai.ImageModel(cfg.Model)
	}
	return &openAIGenerator{
		client:     &client,
		model:      model,
		size:       imageSize(cfg.Size),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func imageSize(s string) openai.ImageGenerateParamsSize {
	switch s {
	case "1792x1024":
		return openai.ImageGenerateParamsSize1792x1024
	case "1024x1792":
		return openai.ImageGenerateParamsSize1024x1792
	default:
		return openai.ImageGenerateParamsSize1024x1024
	}
}

func (g *openAIGenerator) Generate(ctx context.Context, req Request) (string, error) {
	resp, err := g.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt:         coverPrompt(req),
		Model:          g.model,
		N:              openai.Int(1),
		ResponseFormat: openai.ImageGenerateParamsResponseFormatURL,
		Size:           g.size,
	})
	if err != nil {
		return "", fmt.Errorf("image generation: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return "", fmt.Errorf("image generation returned no url")
	}
	return g.download(ctx, resp.Data[0].URL, coverPath(req))
}

func (g *openAIGenerator) download(ctx context.Context, url, path string) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("cover download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("cover download returned %d", resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	_, err = io.Copy(out, resp.Body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write cover: %w", err)
	}
	return path, nil
}

// categoryScenes maps the dominant mixed category to an illustration subject.
var categoryScenes = map[broadcast.Category]string{
	broadcast.CategoryBitcoin:       "a glowing golden coin rising over a dark city skyline",
	broadcast.CategoryMarkets:       "an abstract candlestick chart climbing across a trading floor",
	broadcast.CategoryTechnology:    "circuit traces flowing into a stylized radio tower",
	broadcast.CategoryWorld:         "a stylized globe ringed by radio waves",
	broadcast.CategoryLocal:         "a warm city square with a church tower and tram lines",
	broadcast.CategorySport:         "a packed stadium under floodlights",
	broadcast.CategoryEntertainment: "stage spotlights sweeping over a crowd",
	broadcast.CategoryScience:       "an observatory dome under a starfield",
	broadcast.CategoryWeather:       "sun and storm clouds split across an alpine horizon",
}

// daypartPalettes keeps covers for the same time of day visually related.
var daypartPalettes = map[string]string{
	"morning":   "warm sunrise oranges and soft yellows",
	"afternoon": "clear daylight blues and whites",
	"evening":   "deep sunset purples and ambers",
	"night":     "midnight blues with neon accents",
}

func coverPrompt(req Request) string {
	scene, ok := categoryScenes[req.Dominant]
	if !ok {
		scene = categoryScenes[broadcast.CategoryWorld]
	}
	palette, ok := daypartPalettes[req.Daypart.Name]
	if !ok {
		palette = daypartPalettes["afternoon"]
	}
	return fmt.Sprintf(
		"Square album cover for a radio broadcast, modern flat illustration with bold geometric shapes, no text and no lettering anywhere. Subject: %s. Palette: %s. Mood: %s, %s energy.",
		scene, palette, req.Daypart.Mood, req.Station.Energy)
}
