// Package trigger consumes broadcast commands from the bus so schedulers and
// other nodes can start runs without going through the HTTP API.
package trigger

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/aircast-dev/aircast/internal/bus"
	"github.com/aircast-dev/aircast/internal/config"
	"github.com/aircast-dev/aircast/internal/pipeline"
	"github.com/aircast-dev/aircast/internal/protocol"
)

// Runner starts one broadcast run. Satisfied by *pipeline.Orchestrator.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
}

type Service struct {
	cfg      config.PipelineConfig
	stations config.StationsConfig
	bus      *bus.Client
	runner   Runner
	logger   *slog.Logger
	sub      *nats.Subscription
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

func NewService(parent context.Context, cfg config.PipelineConfig, stations config.StationsConfig, busClient *bus.Client, runner Runner, logger *slog.Logger) *Service {
	ctx, cancel := context.WithCancel(parent)
	return &Service{
		cfg:      cfg,
		stations: stations,
		bus:      busClient,
		runner:   runner,
		logger:   logger.With(slog.String("component", "trigger")),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (s *Service) Start() error {
	if !s.cfg.BusTrigger {
		return nil
	}
	sub, err := s.bus.Conn().Subscribe(protocol.SubjectGenerateCommand, s.handleCommand)
	if err != nil {
		return err
	}
	s.sub = sub
	return nil
}

func (s *Service) Close() {
	s.cancel()
	if s.sub != nil {
		_ = s.sub.Drain()
	}
	s.wg.Wait()
}

func (s *Service) Healthy() bool {
	return !s.cfg.BusTrigger || s.sub != nil
}

func (s *Service) handleCommand(msg *nats.Msg) {
	var cmd protocol.GenerateCommand
	if err := json.Unmarshal(msg.Data, &cmd); err != nil {
		s.logger.Warn("failed to decode generate command", slogError(err))
		return
	}
	stationID := cmd.StationID
	if stationID == "" {
		stationID = s.stations.DefaultStation
	}

	req := pipeline.Request{
		StationID:             stationID,
		TargetDurationMinutes: cmd.Minutes,
		ProfileOverride:       cmd.Profile,
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		result, err := s.runner.Run(s.ctx, req)
		if err != nil {
			s.logger.Warn("bus-triggered run failed",
				slog.String("station_id", stationID),
				slogError(err))
			return
		}
		s.logger.Info("bus-triggered run published",
			slog.String("run_id", result.RunID),
			slog.String("station_id", stationID))
	}()
}

func slogError(err error) slog.Attr {
	return slog.String("error", err.Error())
}
