package notify

import (
	"context"
	"errors"

	"github.com/foxseedlab/kakiokoshi/internal/transcript"
)

type Transcript struct {
	Result   transcript.Result
	Filename string
	Text     []byte
}

// Notifier delivers a finished transcript somewhere outside the service.
// Unconfigured notifiers return nil without doing anything.
type Notifier interface {
	NotifyTranscript(ctx context.Context, t Transcript) error
}

type Multi []Notifier

func (m Multi) NotifyTranscript(ctx context.Context, t Transcript) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.NotifyTranscript(ctx, t); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
