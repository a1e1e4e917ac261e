package audio

import "context"

// Processor wraps the external audio tool. Paths it returns live in workDir
// and belong to the caller.
type Processor interface {
	// Normalize re-encodes src as a mono low-sample-rate WAV file.
	Normalize(ctx context.Context, src, workDir string) (string, error)
	// Duration reports the length of a normalized file in seconds.
	Duration(ctx context.Context, path string) (float64, error)
	// Extract cuts [start, end) out of a normalized file into a new WAV file.
	Extract(ctx context.Context, path string, start, end float64, workDir string) (string, error)
}

const NormalizedMimeType = "audio/wav"
