package api

import (
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aircast-dev/aircast/internal/pipeline"
	"github.com/aircast-dev/aircast/internal/store"
)

func (s *Server) createBroadcast(c *gin.Context) {
	var req TriggerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			ErrorCode: pipeline.CodeInvalidRequest,
			Message:   "invalid request body: " + err.Error(),
		})
		return
	}
	if req.StationID == "" {
		req.StationID = s.cfg.Stations.DefaultStation
	}
	if req.TargetDurationMinutes < 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			ErrorCode: pipeline.CodeInvalidRequest,
			Message:   "target_duration_minutes must not be negative",
		})
		return
	}

	res, err := s.trigger.Run(c.Request.Context(), pipeline.Request{
		StationID:             req.StationID,
		TargetDurationMinutes: req.TargetDurationMinutes,
		ProfileOverride:       req.ProfileOverride,
	})
	if err != nil {
		s.writeRunError(c, err)
		return
	}

	c.JSON(http.StatusCreated, BroadcastResponse{
		StreamID:             res.Artifact.StreamID,
		Status:               string(res.Artifact.Status),
		Station:              res.Station.ID,
		AudioURL:             artifactURL(res.Artifact.AudioPath),
		CoverURL:             artifactURL(res.Artifact.CoverPath),
		TotalDurationSeconds: res.Artifact.TotalDurationSeconds,
		SegmentCount:         res.Artifact.SegmentCount,
		QualityScore:         res.QualityScore,
		Stats: BroadcastStats{
			Items:    res.ItemCount,
			Segments: res.SegmentCount,
			Phases:   res.Phases,
		},
	})
}

func (s *Server) writeRunError(c *gin.Context, err error) {
	var runErr *pipeline.RunError
	if !errors.As(err, &runErr) {
		s.logger.Error("broadcast trigger failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			ErrorCode: pipeline.CodeInternal,
			Message:   "broadcast generation failed",
		})
		return
	}
	c.JSON(statusForCode(runErr.Code), ErrorResponse{
		ErrorCode:       runErr.Code,
		Message:         runErr.Message,
		PhasesCompleted: runErr.PhasesCompleted,
		RetryPossible:   runErr.RetryPossible,
	})
}

func statusForCode(code string) int {
	switch code {
	case pipeline.CodeInvalidRequest:
		return http.StatusBadRequest
	case pipeline.CodeUnknownStation:
		return http.StatusNotFound
	case pipeline.CodeRunInProgress:
		return http.StatusConflict
	case pipeline.CodeInsufficientContent:
		return http.StatusUnprocessableEntity
	case pipeline.CodeScriptGeneration, pipeline.CodeVoiceGeneration:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) listBroadcasts(c *gin.Context) {
	filter := store.ListFilter{
		StationID: c.Query("station_id"),
		Status:    c.Query("status"),
		Limit:     queryInt(c, "limit", 20, 100),
		Offset:    queryInt(c, "offset", 0, 1<<30),
	}

	runs, err := s.runs.ListRuns(c.Request.Context(), filter)
	if err != nil {
		s.logger.Error("failed to list runs", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			ErrorCode: pipeline.CodeInternal,
			Message:   "run history unavailable",
		})
		return
	}

	out := make([]RunSummary, 0, len(runs))
	for _, run := range runs {
		out = append(out, summarize(run))
	}
	c.JSON(http.StatusOK, RunListResponse{Runs: out, Limit: filter.Limit, Offset: filter.Offset})
}

func (s *Server) getBroadcast(c *gin.Context) {
	runID := c.Param("id")

	run, err := s.runs.GetRun(c.Request.Context(), runID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			ErrorCode: "not_found",
			Message:   "no run with id " + runID,
		})
		return
	}
	if err != nil {
		s.logger.Error("failed to load run", slog.String("run_id", runID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			ErrorCode: pipeline.CodeInternal,
			Message:   "run history unavailable",
		})
		return
	}

	events, err := s.runs.ListRunEvents(c.Request.Context(), runID, 100)
	if err != nil {
		s.logger.Error("failed to load run events", slog.String("run_id", runID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			ErrorCode: pipeline.CodeInternal,
			Message:   "run history unavailable",
		})
		return
	}

	timeline := make([]TimelineEvent, 0, len(events))
	for _, evt := range events {
		timeline = append(timeline, TimelineEvent{
			Stage:     evt.Stage,
			Detail:    evt.Detail,
			CreatedAt: evt.CreatedAt.Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, RunDetail{
		RunSummary: summarize(run),
		Script:     run.Script,
		Timeline:   timeline,
	})
}

func (s *Server) listStations(c *gin.Context) {
	stations := s.stations.List()
	out := make([]StationResponse, 0, len(stations))
	for _, st := range stations {
		resp := StationResponse{
			ID:          st.ID,
			DisplayName: st.DisplayName,
			Tone:        st.Tone,
			Energy:      st.Energy,
			Profile:     st.Profile,
		}
		if profile, ok := s.stations.Profile(st.Profile); ok {
			for _, entry := range profile.Entries {
				resp.ProfileMix = append(resp.ProfileMix, ProfileShare{
					Category: string(entry.Category),
					Percent:  entry.Percent,
				})
			}
		}
		out = append(out, resp)
	}
	c.JSON(http.StatusOK, StationListResponse{Stations: out})
}

func summarize(run store.Run) RunSummary {
	return RunSummary{
		RunID:           run.RunID,
		StationID:       run.StationID,
		Profile:         run.Profile,
		Daypart:         run.Daypart,
		TargetHour:      run.TargetHour,
		Status:          string(run.Status),
		ErrorCode:       run.ErrorCode,
		ErrorMessage:    run.ErrorMessage,
		ItemCount:       run.ItemCount,
		SegmentCount:    run.SegmentCount,
		WordCount:       run.WordCount,
		QualityScore:    run.QualityScore,
		AudioURL:        artifactURL(run.AudioPath),
		CoverURL:        artifactURL(run.CoverPath),
		DurationSeconds: run.DurationSeconds,
		CreatedAt:       run.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       run.UpdatedAt.Format(time.RFC3339),
	}
}

// artifactURL maps an on-disk artifact to its /audio mount. Artifacts all
// land flat in the output dir, so the base name is the whole story.
func artifactURL(path string) string {
	if path == "" {
		return ""
	}
	return "/audio/" + filepath.Base(path)
}

func queryInt(c *gin.Context, name string, def, max int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return def
	}
	if value > max {
		return max
	}
	return value
}
