package pipeline

import (
	"fmt"

	"github.com/foxseedlab/kakiokoshi/internal/transcript"
)

type EventType string

const (
	EventProgress EventType = "progress"
	EventComplete EventType = "complete"
	EventError    EventType = "error"
)

type Stage string

const (
	StageStart      Stage = "start"
	StageNormalized Stage = "normalized"
	StageDuration   Stage = "duration"
	StageChunking   Stage = "chunking"
	StageChunked    Stage = "chunked"
	StageChunk      Stage = "chunk"
	StageCleanup    Stage = "cleanup"
)

// Event is one line of the progress stream. Exactly one complete or error
// event terminates a run.
type Event struct {
	Type     EventType          `json:"type"`
	Stage    Stage              `json:"stage,omitempty"`
	Message  string             `json:"message,omitempty"`
	Progress float64            `json:"progress,omitempty"`
	Data     *transcript.Result `json:"data,omitempty"`
	Error    string             `json:"error,omitempty"`
}

type ProgressFunc func(Event)

func progressEvent(stage Stage, progress float64, format string, args ...any) Event {
	return Event{
		Type:     EventProgress,
		Stage:    stage,
		Message:  fmt.Sprintf(format, args...),
		Progress: progress,
	}
}

// chunkProgress spreads per-chunk events over the 50..90 band.
func chunkProgress(index, total int) float64 {
	if total <= 0 {
		return 50
	}
	return 50 + float64(index)/float64(total)*40
}
