package pipeline

import "fmt"

const (
	messageProcessingFailed = "An error occurred while processing the audio file."
	messageCanceled         = "Processing was canceled before it finished."
	messageEmptyAudio       = "The audio file contains no playable audio."
)

// FatalError aborts a whole run. Message is safe to show to end users.
type FatalError struct {
	Step    string
	Message string
	Err     error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}
