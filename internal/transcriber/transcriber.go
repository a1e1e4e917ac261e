package transcriber

import "context"

type Request struct {
	Audio    []byte
	MimeType string
	Prompt   string
}

// Transcriber performs exactly one transcription call for one audio chunk
// and returns the model's free-form reply.
type Transcriber interface {
	Transcribe(ctx context.Context, req Request) (string, error)
}

type Func func(ctx context.Context, req Request) (string, error)

func (f Func) Transcribe(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
