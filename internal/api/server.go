package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/aircast-dev/aircast/internal/config"
	"github.com/aircast-dev/aircast/internal/pipeline"
	"github.com/aircast-dev/aircast/internal/station"
	"github.com/aircast-dev/aircast/internal/store"
)

// BroadcastTrigger starts one broadcast run and blocks until it finishes.
type BroadcastTrigger interface {
	Run(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
}

// RunReader serves run history out of the store.
type RunReader interface {
	GetRun(ctx context.Context, runID string) (store.Run, error)
	ListRuns(ctx context.Context, filter store.ListFilter) ([]store.Run, error)
	ListRunEvents(ctx context.Context, runID string, limit int) ([]store.RunEvent, error)
}

// StationLister exposes the configured stations and their content profiles.
type StationLister interface {
	List() []station.Station
	Profile(name string) (station.ContentProfile, bool)
}

// Server is the HTTP face of the daemon: broadcast triggering, run history,
// station listing, artifact serving, and health probes.
type Server struct {
	cfg      config.Config
	trigger  BroadcastTrigger
	runs     RunReader
	stations StationLister
	readyFn  func() bool
	logger   *slog.Logger
	engine   *gin.Engine
}

// NewServer builds the router. readyFn reports whether the daemon's
// dependencies are up; nil means always ready.
func NewServer(cfg config.Config, trigger BroadcastTrigger, runs RunReader, stations StationLister, readyFn func() bool, logger *slog.Logger) *Server {
	if readyFn == nil {
		readyFn = func() bool { return true }
	}
	s := &Server{
		cfg:      cfg,
		trigger:  trigger,
		runs:     runs,
		stations: stations,
		readyFn:  readyFn,
		logger:   logger.With(slog.String("component", "api")),
	}
	s.engine = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	if s.cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	if len(s.cfg.HTTP.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: s.cfg.HTTP.CORSOrigins,
			AllowMethods: []string{"GET", "POST", "OPTIONS"},
			AllowHeaders: []string{"Origin", "Content-Type"},
		}))
	}

	v1 := r.Group("/api/v1")
	v1.POST("/broadcasts", s.createBroadcast)
	v1.GET("/broadcasts", s.listBroadcasts)
	v1.GET("/broadcasts/:id", s.getBroadcast)
	v1.GET("/stations", s.listStations)

	r.Static("/audio", s.cfg.Assembly.OutputDir)
	r.GET("/healthz", s.health)
	r.GET("/readyz", s.ready)
	return r
}

// Handler returns the router for mounting into an http.Server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func (s *Server) ready(c *gin.Context) {
	if s.readyFn() {
		c.String(http.StatusOK, "ready")
		return
	}
	c.String(http.StatusServiceUnavailable, "not ready")
}
