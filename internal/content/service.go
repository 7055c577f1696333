package content

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Service fans collection out across all configured sources and joins the
// results. A failing source degrades the run rather than aborting it; the
// caller decides whether the surviving items are enough.
type Service struct {
	collectors []Collector
	timeout    time.Duration
	logger     *slog.Logger
}

func NewService(collectors []Collector, timeout time.Duration, logger *slog.Logger) *Service {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Service{
		collectors: collectors,
		timeout:    timeout,
		logger:     logger.With(slog.String("component", "content-service")),
	}
}

// Collect gathers items from every source concurrently. The returned errors
// are per-source failures; they never abort collection.
func (s *Service) Collect(ctx context.Context) ([]Item, []*CollectionError) {
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		items    []Item
		failures []*CollectionError
	)

	start := time.Now()
	for _, collector := range s.collectors {
		wg.Add(1)
		go func(c Collector) {
			defer wg.Done()

			cctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			collected, err := c.Collect(cctx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, &CollectionError{Source: c.Name(), Err: err})
				s.logger.Warn("source failed, continuing degraded",
					slog.String("source", c.Name()),
					slog.String("error", err.Error()))
				return
			}
			items = append(items, collected...)
			s.logger.Debug("source collected",
				slog.String("source", c.Name()),
				slog.Int("items", len(collected)))
		}(collector)
	}
	wg.Wait()

	s.logger.Info("collection complete",
		slog.Int("items", len(items)),
		slog.Int("failed_sources", len(failures)),
		slog.Duration("elapsed", time.Since(start)))
	return items, failures
}
