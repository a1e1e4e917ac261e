package metrics

import (
	"time"

	"github.com/foxseedlab/kakiokoshi/internal/transcript"
)

type ChunkOutcome string

const (
	ChunkTranscribed ChunkOutcome = "transcribed"
	ChunkFailed      ChunkOutcome = "failed"
)

type Recorder interface {
	ObserveChunk(outcome ChunkOutcome, elapsed time.Duration, segments int)
	ObserveRun(status transcript.Status, audioSeconds float64, elapsed time.Duration)
}

type Nop struct{}

func (Nop) ObserveChunk(ChunkOutcome, time.Duration, int) {}

func (Nop) ObserveRun(transcript.Status, float64, time.Duration) {}
