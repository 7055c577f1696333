package protocol

import "time"

// Bus subjects for broadcast run lifecycle events. Consumers subscribe with
// SubjectRunAll to follow every run on the node.
const (
	SubjectRunRequested = "broadcast.run.requested"
	SubjectRunStarted   = "broadcast.run.started"
	SubjectRunStage     = "broadcast.run.stage"
	SubjectRunCompleted = "broadcast.run.completed"
	SubjectRunFailed    = "broadcast.run.failed"
	SubjectRunAll       = "broadcast.run.>"
)

// SubjectGenerateCommand carries bus-initiated broadcast requests, the
// remote-control twin of POST /api/v1/broadcasts.
const SubjectGenerateCommand = "broadcast.cmd.generate"

// Pipeline stage names carried in RunStage events, in execution order.
const (
	StageCollect  = "collect"
	StageMix      = "mix"
	StageScript   = "script"
	StageVoice    = "voice"
	StageCover    = "cover"
	StageAssemble = "assemble"
	StagePublish  = "publish"
)

// GenerateCommand asks the node to produce one broadcast. Zero values fall
// back to station and pipeline defaults.
type GenerateCommand struct {
	StationID string    `json:"station_id"`
	Minutes   int       `json:"minutes,omitempty"`
	Profile   string    `json:"profile,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// RunRequested announces an accepted broadcast request before any work runs.
type RunRequested struct {
	RunID     string    `json:"run_id"`
	StationID string    `json:"station_id"`
	Minutes   int       `json:"minutes"`
	Profile   string    `json:"profile,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// RunStarted marks the moment a run acquired a pipeline slot.
type RunStarted struct {
	RunID     string    `json:"run_id"`
	StationID string    `json:"station_id"`
	Timestamp time.Time `json:"timestamp"`
}

// RunStage reports completion of a single pipeline stage.
type RunStage struct {
	RunID     string    `json:"run_id"`
	StationID string    `json:"station_id"`
	Stage     string    `json:"stage"`
	Detail    string    `json:"detail,omitempty"`
	ElapsedMS int64     `json:"elapsed_ms"`
	Timestamp time.Time `json:"timestamp"`
}

// RunCompleted carries the published artifact summary.
type RunCompleted struct {
	RunID           string    `json:"run_id"`
	StationID       string    `json:"station_id"`
	AudioPath       string    `json:"audio_path"`
	CoverPath       string    `json:"cover_path,omitempty"`
	DurationSeconds float64   `json:"duration_seconds"`
	SegmentCount    int       `json:"segment_count"`
	QualityScore    float64   `json:"quality_score"`
	Timestamp       time.Time `json:"timestamp"`
}

// RunFailed reports a run that ended before publishing.
type RunFailed struct {
	RunID           string    `json:"run_id"`
	StationID       string    `json:"station_id"`
	Code            string    `json:"code"`
	Message         string    `json:"message"`
	PhasesCompleted []string  `json:"phases_completed"`
	RetryPossible   bool      `json:"retry_possible"`
	Timestamp       time.Time `json:"timestamp"`
}
