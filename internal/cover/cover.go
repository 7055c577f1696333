package cover

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aircast-dev/aircast/internal/broadcast"
	"github.com/aircast-dev/aircast/internal/config"
	"github.com/aircast-dev/aircast/internal/station"
)

// Request describes the cover art wanted for one broadcast.
type Request struct {
	RunID    string
	Station  station.Station
	Daypart  station.Daypart
	Dominant broadcast.Category
	At       time.Time
	OutDir   string
}

// Generator produces a cover image on disk and returns its path.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Service wraps a generator with the degradation policy: a failed vendor call
// falls back to a locally drawn card, and only a failed fallback surfaces an
// error. Callers treat that error as a missing cover, not a failed broadcast.
type Service struct {
	cfg       config.CoverConfig
	generator Generator
	logger    *slog.Logger
}

func NewService(cfg config.CoverConfig, log *slog.Logger) (*Service, error) {
	gen, err := newGenerator(cfg)
	if err != nil {
		return nil, err
	}
	return &Service{
		cfg:       cfg,
		generator: gen,
		logger:    log.With(slog.String("component", "cover-service")),
	}, nil
}

// Create returns the cover path, or "" when covers are disabled.
func (s *Service) Create(ctx context.Context, req Request) (string, error) {
	if !s.cfg.Enabled {
		return "", nil
	}
	start := time.Now()
	path, err := s.generator.Generate(ctx, req)
	if err == nil {
		s.logger.Info("cover generated",
			slog.String("run_id", req.RunID),
			slog.String("path", path),
			slog.Duration("elapsed", time.Since(start)))
		return path, nil
	}

	s.logger.Warn("cover generation failed, drawing fallback card",
		slog.String("run_id", req.RunID),
		slog.String("error", err.Error()))
	path, ferr := RenderFallback(req)
	if ferr != nil {
		return "", fmt.Errorf("cover fallback: %w", ferr)
	}
	return path, nil
}

func newGenerator(cfg config.CoverConfig) (Generator, error) {
	switch cfg.Mode {
	case "mock":
		return &fallbackGenerator{}, nil
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("cover mode openai requires OPENAI_API_KEY")
		}
		return newOpenAIGenerator(cfg, apiKey), nil
	default:
		return nil, fmt.Errorf("unknown cover mode %q", cfg.Mode)
	}
}

func coverPath(req Request) string {
	return filepath.Join(req.OutDir, fmt.Sprintf("cover_%s.png", req.RunID))
}
