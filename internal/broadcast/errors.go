package broadcast

import "errors"

// Pipeline stage failures. Callers wrap these with %w so the orchestrator can
// classify a failure without inspecting strings.
var (
	// ErrInsufficientContent means the mixer selected fewer items than the
	// minimum viable broadcast requires.
	ErrInsufficientContent = errors.New("insufficient content for broadcast")

	// ErrScriptGeneration means the language model produced no usable script.
	// Scripts are all-or-nothing; there is no partial dialogue.
	ErrScriptGeneration = errors.New("script generation failed")

	// ErrVoiceGeneration means at least one segment could not be synthesized
	// after retries. A missing line would desynchronize the dialogue, so the
	// whole batch fails.
	ErrVoiceGeneration = errors.New("voice synthesis failed")

	// ErrAssemblyConsistency means the audio segments handed to the assembler
	// do not match the script segment set.
	ErrAssemblyConsistency = errors.New("audio segments inconsistent with script")

	// ErrCoverEmbedding means tagging the final MP3 with cover art failed.
	// Non-fatal: the broadcast ships without embedded art.
	ErrCoverEmbedding = errors.New("cover embedding failed")

	// ErrRunInProgress means a broadcast for the same station and target hour
	// is already being generated.
	ErrRunInProgress = errors.New("broadcast generation already in progress")
)
