package api

import "github.com/aircast-dev/aircast/internal/broadcast"

type TriggerRequest struct {
	StationID             string `json:"station_id"`
	TargetDurationMinutes int    `json:"target_duration_minutes"`
	ProfileOverride       string `json:"profile_override"`
}

type BroadcastStats struct {
	Items    int      `json:"items"`
	Segments int      `json:"segments"`
	Phases   []string `json:"phases"`
}

type BroadcastResponse struct {
	StreamID             string         `json:"stream_id"`
	Status               string         `json:"status"`
	Station              string         `json:"station"`
	AudioURL             string         `json:"audio_url"`
	CoverURL             string         `json:"cover_url,omitempty"`
	TotalDurationSeconds float64        `json:"total_duration_seconds"`
	SegmentCount         int            `json:"segment_count"`
	QualityScore         float64        `json:"quality_score"`
	Stats                BroadcastStats `json:"stats"`
}

type ErrorResponse struct {
	ErrorCode       string   `json:"error_code"`
	Message         string   `json:"message"`
	PhasesCompleted []string `json:"phases_completed,omitempty"`
	RetryPossible   bool     `json:"retry_possible"`
}

type RunSummary struct {
	RunID           string  `json:"run_id"`
	StationID       string  `json:"station_id"`
	Profile         string  `json:"profile"`
	Daypart         string  `json:"daypart"`
	TargetHour      string  `json:"target_hour"`
	Status          string  `json:"status"`
	ErrorCode       string  `json:"error_code,omitempty"`
	ErrorMessage    string  `json:"error_message,omitempty"`
	ItemCount       int     `json:"item_count"`
	SegmentCount    int     `json:"segment_count"`
	WordCount       int     `json:"word_count"`
	QualityScore    float64 `json:"quality_score"`
	AudioURL        string  `json:"audio_url,omitempty"`
	CoverURL        string  `json:"cover_url,omitempty"`
	DurationSeconds float64 `json:"duration_seconds"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

type TimelineEvent struct {
	Stage     string `json:"stage"`
	Detail    string `json:"detail,omitempty"`
	CreatedAt string `json:"created_at"`
}

type RunDetail struct {
	RunSummary
	Script   []broadcast.ScriptSegment `json:"script,omitempty"`
	Timeline []TimelineEvent           `json:"timeline"`
}

type RunListResponse struct {
	Runs   []RunSummary `json:"runs"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}

type ProfileShare struct {
	Category string `json:"category"`
	Percent  int    `json:"percent"`
}

type StationResponse struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Tone        string         `json:"tone"`
	Energy      string         `json:"energy"`
	Profile     string         `json:"profile"`
	ProfileMix  []ProfileShare `json:"profile_mix,omitempty"`
}

type StationListResponse struct {
	Stations []StationResponse `json:"stations"`
}
