package broadcast

import "time"

// Speaker identifies who voices a script line.
type Speaker string

const (
	SpeakerMarcel Speaker = "marcel"
	SpeakerJarvis Speaker = "jarvis"
	// SpeakerSystem marks non-dialogue audio such as jingles.
	SpeakerSystem Speaker = "system"
)

// Valid reports whether the speaker is one of the known hosts.
func (s Speaker) Valid() bool {
	switch s {
	case SpeakerMarcel, SpeakerJarvis, SpeakerSystem:
		return true
	}
	return false
}

// SegmentType classifies a script segment.
type SegmentType string

const (
	SegmentIntro      SegmentType = "intro"
	SegmentNews       SegmentType = "news"
	SegmentDiscussion SegmentType = "discussion"
	SegmentOutro      SegmentType = "outro"
	SegmentWeather    SegmentType = "weather"
	SegmentJingle     SegmentType = "jingle"
)

// ScriptSegment is a single voiced line of the broadcast script. Position is
// the only ordering contract between script generation, synthesis, and
// assembly: positions are contiguous starting at zero.
type ScriptSegment struct {
	Speaker          Speaker     `json:"speaker"`
	Text             string      `json:"text"`
	Emotion          string      `json:"emotion,omitempty"`
	Type             SegmentType `json:"type"`
	Position         int         `json:"position"`
	ItemIndex        int         `json:"item_index"`
	EstimatedSeconds float64     `json:"estimated_seconds"`
}

// AudioSegment is one synthesized MP3 clip. Ownership passes to the assembler
// once a batch completes; the file is removed after the final mix.
type AudioSegment struct {
	Position        int     `json:"position"`
	SegmentID       string  `json:"segment_id"`
	Path            string  `json:"path"`
	DurationSeconds float64 `json:"duration_seconds"`
	Speaker         Speaker `json:"speaker"`
}

// Status tracks an artifact through the pipeline.
type Status string

const (
	StatusPending    Status = "pending"
	StatusGenerated  Status = "generated"
	StatusAudioReady Status = "audio_ready"
	StatusPublished  Status = "published"
	StatusFailed     Status = "failed"
)

// Artifact is the finished broadcast.
type Artifact struct {
	StreamID             string    `json:"stream_id"`
	StationID            string    `json:"station_id"`
	AudioPath            string    `json:"audio_path"`
	CoverPath            string    `json:"cover_path,omitempty"`
	ManifestPath         string    `json:"manifest_path,omitempty"`
	TotalDurationSeconds float64   `json:"total_duration_seconds"`
	SegmentCount         int       `json:"segment_count"`
	CoverEmbedded        bool      `json:"cover_embedded"`
	CreatedAt            time.Time `json:"created_at"`
	Status               Status    `json:"status"`
}
