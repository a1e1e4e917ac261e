package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/foxseedlab/kakiokoshi/internal/audio"
	"github.com/foxseedlab/kakiokoshi/internal/metrics"
	"github.com/foxseedlab/kakiokoshi/internal/notify"
	"github.com/foxseedlab/kakiokoshi/internal/transcriber"
	"github.com/foxseedlab/kakiokoshi/internal/transcript"
	"github.com/google/uuid"
)

const notifyTimeout = 30 * time.Second

// Source is an upload already staged on disk by the caller, who keeps
// ownership of Path.
type Source struct {
	ID       string
	FileName string
	Path     string
}

type Options struct {
	WindowSeconds float64
	TempDir       string
	Prompt        string
}

type Runner struct {
	audio       audio.Processor
	transcriber transcriber.Transcriber
	parser      *transcript.Parser
	notifier    notify.Notifier
	metrics     metrics.Recorder
	opts        Options
}

func NewRunner(proc audio.Processor, stt transcriber.Transcriber, parser *transcript.Parser, notifier notify.Notifier, rec metrics.Recorder, opts Options) *Runner {
	if notifier == nil {
		notifier = notify.Multi{}
	}
	if rec == nil {
		rec = metrics.Nop{}
	}
	if opts.WindowSeconds <= 0 {
		opts.WindowSeconds = transcript.DefaultWindowSeconds
	}
	if opts.TempDir == "" {
		opts.TempDir = os.TempDir()
	}
	return &Runner{
		audio:       proc,
		transcriber: stt,
		parser:      parser,
		notifier:    notifier,
		metrics:     rec,
		opts:        opts,
	}
}

func (r *Runner) Run(ctx context.Context, src Source) transcript.Result {
	return r.RunWithProgress(ctx, src, nil)
}

// RunWithProgress transcribes src chunk by chunk, strictly in order. A failed
// chunk is logged and skipped; only audio preparation failures abort the run.
func (r *Runner) RunWithProgress(ctx context.Context, src Source, emit ProgressFunc) transcript.Result {
	startedAt := time.Now()
	if emit == nil {
		emit = func(Event) {}
	}
	id := src.ID
	if id == "" {
		id = uuid.NewString()
	}
	result := transcript.Result{
		ID:       id,
		FileName: src.FileName,
		Segments: []transcript.Segment{},
		Status:   transcript.StatusProcessing,
	}
	log := slog.With("job_id", id, "file_name", src.FileName)
	log.Info("transcription run started", "window_seconds", r.opts.WindowSeconds)

	ws := &workspace{log: log}
	err := r.process(ctx, src, &result, ws, emit, log)

	emit(progressEvent(StageCleanup, 95, "Cleaning up temporary files..."))
	ws.cleanup()

	if err != nil {
		result.Status = transcript.StatusError
		result.Error = userMessage(err)
		log.Error("transcription run failed", "error", err, "segments", len(result.Segments))
		emit(Event{Type: EventError, Error: result.Error})
	} else {
		result.Status = transcript.StatusCompleted
		log.Info("transcription run completed", "duration_seconds", result.Duration, "segments", len(result.Segments), "elapsed", time.Since(startedAt))
		r.notify(ctx, result, log)
		final := result
		emit(Event{Type: EventComplete, Data: &final})
	}
	r.metrics.ObserveRun(result.Status, result.Duration, time.Since(startedAt))
	return result
}

func (r *Runner) process(ctx context.Context, src Source, result *transcript.Result, ws *workspace, emit ProgressFunc, log *slog.Logger) error {
	emit(progressEvent(StageStart, 10, "Converting audio..."))
	if err := os.MkdirAll(r.opts.TempDir, 0o750); err != nil {
		return &FatalError{Step: "prepare temp dir", Message: messageProcessingFailed, Err: err}
	}
	dir, err := os.MkdirTemp(r.opts.TempDir, "run-*")
	if err != nil {
		return &FatalError{Step: "prepare temp dir", Message: messageProcessingFailed, Err: err}
	}
	ws.dir = dir

	normalized, err := r.audio.Normalize(ctx, src.Path, dir)
	if err != nil {
		return &FatalError{Step: "normalize audio", Message: messageProcessingFailed, Err: err}
	}
	ws.add(normalized)
	emit(progressEvent(StageNormalized, 20, "Analyzing audio duration..."))

	duration, err := r.audio.Duration(ctx, normalized)
	if err != nil {
		return &FatalError{Step: "detect duration", Message: messageProcessingFailed, Err: err}
	}
	result.Duration = duration
	emit(progressEvent(StageDuration, 30, "Detected duration: %s", formatElapsedHMS(secondsToDuration(duration))))

	emit(progressEvent(StageChunking, 40, "Splitting audio into chunks for processing..."))
	windows, err := transcript.Split(duration, r.opts.WindowSeconds)
	if err != nil {
		var invalid *transcript.InvalidInputError
		if errors.As(err, &invalid) {
			return &FatalError{Step: "split audio", Message: messageEmptyAudio, Err: err}
		}
		return &FatalError{Step: "split audio", Message: messageProcessingFailed, Err: err}
	}
	emit(progressEvent(StageChunked, 50, "Audio split into %d chunks", len(windows)))
	log.Info("audio split into chunks", "duration_seconds", duration, "chunks", len(windows))

	for _, w := range windows {
		if err := ctx.Err(); err != nil {
			return &FatalError{Step: "transcribe chunks", Message: messageCanceled, Err: err}
		}
		emit(progressEvent(StageChunk, chunkProgress(w.Index, len(windows)), "Transcribing chunk %d/%d...", w.Index+1, len(windows)))

		chunkStartedAt := time.Now()
		segments, err := r.transcribeChunk(ctx, normalized, w, ws)
		if cerr := ctx.Err(); cerr != nil {
			return &FatalError{Step: "transcribe chunks", Message: messageCanceled, Err: cerr}
		}
		if err != nil {
			r.metrics.ObserveChunk(metrics.ChunkFailed, time.Since(chunkStartedAt), 0)
			log.Error("chunk transcription failed; skipping chunk",
				"error", err,
				"chunk_index", w.Index,
				"chunk_start", w.Start,
				"chunk_end", w.End)
			continue
		}
		r.metrics.ObserveChunk(metrics.ChunkTranscribed, time.Since(chunkStartedAt), len(segments))
		log.Debug("chunk transcribed", "chunk_index", w.Index, "segments", len(segments))
		result.Segments = append(result.Segments, segments...)
	}
	transcript.Renumber(result.Segments)
	return nil
}

func (r *Runner) transcribeChunk(ctx context.Context, normalized string, w transcript.Window, ws *workspace) ([]transcript.Segment, error) {
	path, err := r.audio.Extract(ctx, normalized, w.Start, w.End, ws.dir)
	if err != nil {
		return nil, fmt.Errorf("extract chunk: %w", err)
	}
	ws.add(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read chunk: %w", err)
	}
	text, err := r.transcriber.Transcribe(ctx, transcriber.Request{
		Audio:    data,
		MimeType: audio.NormalizedMimeType,
		Prompt:   r.opts.Prompt,
	})
	if err != nil {
		return nil, err
	}
	return r.parser.Parse(text, w.Start), nil
}

func (r *Runner) notify(ctx context.Context, result transcript.Result, log *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	err := r.notifier.NotifyTranscript(ctx, notify.Transcript{
		Result:   result,
		Filename: fmt.Sprintf("transcript-%s.txt", result.ID),
		Text:     buildTranscriptText(result),
	})
	if err != nil {
		log.Error("failed to deliver transcript notification", "error", err)
	}
}

func userMessage(err error) string {
	var fatal *FatalError
	if errors.As(err, &fatal) && fatal.Message != "" {
		return fatal.Message
	}
	return messageProcessingFailed
}

// workspace tracks temp artifacts owned by one run.
type workspace struct {
	log   *slog.Logger
	dir   string
	paths []string
}

func (w *workspace) add(path string) {
	w.paths = append(w.paths, path)
}

func (w *workspace) cleanup() {
	for _, p := range w.paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			w.log.Warn("failed to delete temporary file", "error", err, "path", p)
		}
	}
	if w.dir == "" {
		return
	}
	if err := os.RemoveAll(w.dir); err != nil {
		w.log.Warn("failed to delete temporary directory", "error", err, "path", w.dir)
	}
}
