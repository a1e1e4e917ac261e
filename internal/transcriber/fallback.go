package transcriber

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// ServiceError is returned when both the primary and the fallback call failed.
type ServiceError struct {
	Primary  error
	Fallback error
}

func (e *ServiceError) Error() string {
	if e.Fallback == nil {
		return fmt.Sprintf("transcription service failed: %v", e.Primary)
	}
	return fmt.Sprintf("transcription service failed: %v (fallback: %v)", e.Primary, e.Fallback)
}

func (e *ServiceError) Unwrap() []error {
	if e.Fallback == nil {
		return []error{e.Primary}
	}
	return []error{e.Primary, e.Fallback}
}

type FallbackConfig struct {
	Fallback Transcriber
	// Prompt replaces the request prompt on the fallback call when non-empty.
	Prompt string
	// AttemptTimeout bounds each call separately; zero leaves it to the client.
	AttemptTimeout time.Duration
}

type FallbackTranscriber struct {
	primary        Transcriber
	fallback       Transcriber
	fallbackPrompt string
	timeout        time.Duration
}

// NewFallbackTranscriber retries a failed primary call once against the fallback.
// Without a fallback the primary failure is surfaced as a ServiceError directly.
func NewFallbackTranscriber(primary Transcriber, cfg FallbackConfig) *FallbackTranscriber {
	return &FallbackTranscriber{
		primary:        primary,
		fallback:       cfg.Fallback,
		fallbackPrompt: cfg.Prompt,
		timeout:        cfg.AttemptTimeout,
	}
}

func (t *FallbackTranscriber) Transcribe(ctx context.Context, req Request) (string, error) {
	text, err := t.attempt(ctx, t.primary, req)
	if err == nil {
		return text, nil
	}
	if ctx.Err() != nil {
		return "", err
	}
	if t.fallback == nil {
		return "", &ServiceError{Primary: err}
	}
	slog.Warn("primary transcription failed; trying fallback model", "error", err)

	retry := req
	if t.fallbackPrompt != "" {
		retry.Prompt = t.fallbackPrompt
	}
	text, ferr := t.attempt(ctx, t.fallback, retry)
	if ferr != nil {
		return "", &ServiceError{Primary: err, Fallback: ferr}
	}
	return text, nil
}

func (t *FallbackTranscriber) attempt(ctx context.Context, tr Transcriber, req Request) (string, error) {
	if t.timeout <= 0 {
		return tr.Transcribe(ctx, req)
	}
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	text, err := tr.Transcribe(ctx, req)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "", fmt.Errorf("attempt timed out after %s: %w", t.timeout, err)
	}
	return text, err
}

// Shutdown closes backends that hold long-lived network clients.
func (t *FallbackTranscriber) Shutdown() error {
	var errs []error
	for _, tr := range []Transcriber{t.primary, t.fallback} {
		if c, ok := tr.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}
