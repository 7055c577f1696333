package pipeline

// RunError codes, stable across the API and the run store.
const (
	CodeInvalidRequest      = "invalid_request"
	CodeUnknownStation      = "unknown_station"
	CodeRunInProgress       = "run_in_progress"
	CodeInsufficientContent = "insufficient_content"
	CodeScriptGeneration    = "script_generation"
	CodeVoiceGeneration     = "voice_generation"
	CodeAssemblyConsistency = "assembly_consistency"
	CodeInternal            = "internal"
)

// RunError is the structured failure a run reports outward: a stable code,
// the phases that finished before the failure, and whether an identical
// retry can succeed.
type RunError struct {
	Code            string
	Message         string
	PhasesCompleted []string
	RetryPossible   bool

	cause error
}

func (e *RunError) Error() string {
	return e.Code + ": " + e.Message
}

func (e *RunError) Unwrap() error {
	return e.cause
}
