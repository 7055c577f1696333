package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aircast-dev/aircast/internal/api"
	"github.com/aircast-dev/aircast/internal/assemble"
	"github.com/aircast-dev/aircast/internal/bus"
	"github.com/aircast-dev/aircast/internal/config"
	"github.com/aircast-dev/aircast/internal/content"
	"github.com/aircast-dev/aircast/internal/cover"
	"github.com/aircast-dev/aircast/internal/natsserver"
	"github.com/aircast-dev/aircast/internal/pipeline"
	"github.com/aircast-dev/aircast/internal/script"
	"github.com/aircast-dev/aircast/internal/station"
	"github.com/aircast-dev/aircast/internal/store"
	"github.com/aircast-dev/aircast/internal/trigger"
	"github.com/aircast-dev/aircast/internal/voice"
)

// Runtime owns the daemon's lifecycle: telemetry, the embedded bus, the run
// store, the broadcast pipeline, and the HTTP servers. Start blocks until the
// context is cancelled, then shuts everything down in reverse order.
type Runtime struct {
	cfg           config.Config
	logger        *slog.Logger
	httpServer    *http.Server
	metricsServer *http.Server
	tracerClose   func(context.Context) error
	ready         atomic.Bool
	wg            sync.WaitGroup
}

func New(cfg config.Config, logger *slog.Logger) *Runtime {
	return &Runtime{
		cfg:    cfg,
		logger: logger,
	}
}

func (r *Runtime) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	shutdownTelemetry, metricHandler, err := setupTelemetry(r.cfg, r.logger)
	if err != nil {
		return fmt.Errorf("failed to setup telemetry: %w", err)
	}
	r.tracerClose = shutdownTelemetry

	embedded, err := natsserver.Start(r.cfg.Bus, r.logger)
	if err != nil {
		return fmt.Errorf("failed to start embedded bus: %w", err)
	}
	if embedded != nil {
		defer embedded.Shutdown()
	}

	busClient, err := bus.Connect(ctx, r.cfg.Bus, r.logger)
	if err != nil {
		return fmt.Errorf("failed to connect to bus: %w", err)
	}
	defer busClient.Close()

	runStore, err := store.Open(ctx, r.cfg.Store, r.logger)
	if err != nil {
		return fmt.Errorf("failed to open run store: %w", err)
	}
	defer runStore.Close()

	catalog, err := station.NewCatalog(r.cfg.Stations.Directory, r.logger)
	if err != nil {
		return fmt.Errorf("failed to build station catalog: %w", err)
	}

	collector := r.buildCollectors()

	generator, err := script.NewGenerator(r.cfg.Script)
	if err != nil {
		return fmt.Errorf("failed to build script generator: %w", err)
	}
	writer := script.NewWriter(r.cfg.Script, generator, r.logger)

	synth, err := voice.NewSynthesizer(r.cfg.Voice)
	if err != nil {
		return fmt.Errorf("failed to build voice synthesizer: %w", err)
	}
	voices := voice.NewEngine(r.cfg.Voice, synth, r.logger)

	covers, err := cover.NewService(r.cfg.Cover, r.logger)
	if err != nil {
		return fmt.Errorf("failed to build cover service: %w", err)
	}

	runner, err := assemble.NewExecRunner(r.cfg.Assembly.FFmpegCommand)
	if err != nil {
		return fmt.Errorf("failed to build ffmpeg runner: %w", err)
	}
	assembler := assemble.NewAssembler(r.cfg.Assembly, runner, r.logger)

	if err := os.MkdirAll(r.cfg.Assembly.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	orchestrator := pipeline.New(r.cfg, pipeline.Deps{
		Catalog:   catalog,
		Collector: collector,
		Writer:    writer,
		Voices:    voices,
		Covers:    covers,
		Assembler: assembler,
		Store:     runStore,
		Events:    busClient,
	}, r.logger)

	trig := trigger.NewService(ctx, r.cfg.Pipeline, r.cfg.Stations, busClient, orchestrator, r.logger)
	if err := trig.Start(); err != nil {
		return fmt.Errorf("failed to start bus trigger: %w", err)
	}
	defer trig.Close()

	apiServer := api.NewServer(r.cfg, orchestrator, runStore, catalog, r.healthy(busClient, trig), r.logger)

	addr := fmt.Sprintf("%s:%d", r.cfg.HTTP.Bind, r.cfg.HTTP.Port)
	r.httpServer = &http.Server{
		Addr:              addr,
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			r.logger.Error("http server failed", slog.String("error", err.Error()))
		}
	}()

	if metricHandler != nil {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metricHandler)
		r.metricsServer = &http.Server{
			Addr:              r.cfg.Telemetry.PrometheusBind,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			if err := r.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				r.logger.Error("metrics server failed", slog.String("error", err.Error()))
			}
		}()
	}

	r.ready.Store(true)
	r.logger.Info("runtime started",
		slog.String("addr", addr),
		slog.Int("stations", len(catalog.List())))

	<-ctx.Done()
	r.ready.Store(false)
	r.logger.Info("runtime stopping")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := r.httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Error("http shutdown error", slog.String("error", err.Error()))
	}
	if r.metricsServer != nil {
		if err := r.metricsServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Error("metrics shutdown error", slog.String("error", err.Error()))
		}
	}
	r.wg.Wait()

	if r.tracerClose != nil {
		if err := r.tracerClose(shutdownCtx); err != nil {
			r.logger.Error("telemetry shutdown error", slog.String("error", err.Error()))
		}
	}

	return nil
}

// buildCollectors assembles the enabled content sources into one service.
func (r *Runtime) buildCollectors() *content.Service {
	client := &http.Client{Timeout: time.Duration(r.cfg.Collectors.TimeoutMS) * time.Millisecond}

	var collectors []content.Collector
	if len(r.cfg.Collectors.Feeds) > 0 {
		collectors = append(collectors, content.NewRSSCollector(r.cfg.Collectors.Feeds, client, r.cfg.Collectors.UserAgent))
	}
	if r.cfg.Collectors.Weather.Enabled {
		collectors = append(collectors, content.NewWeatherCollector(r.cfg.Collectors.Weather, client))
	}
	if r.cfg.Collectors.Crypto.Enabled {
		collectors = append(collectors, content.NewCryptoCollector(r.cfg.Collectors.Crypto, client))
	}

	timeout := time.Duration(r.cfg.Collectors.TimeoutMS) * time.Millisecond
	return content.NewService(collectors, timeout, r.logger)
}

func (r *Runtime) healthy(busClient *bus.Client, trig *trigger.Service) func() bool {
	return func() bool {
		return r.ready.Load() && busClient.Healthy() && trig.Healthy()
	}
}
