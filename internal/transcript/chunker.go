package transcript

import (
	"fmt"
	"math"
)

const DefaultWindowSeconds = 300

// Window is one independently submittable slice of the source recording.
type Window struct {
	Index int
	Start float64
	End   float64
}

func (w Window) Length() float64 {
	return w.End - w.Start
}

type InvalidInputError struct {
	Field string
	Value float64
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %v must be positive", e.Field, e.Value)
}

// Split tiles [0, duration) with contiguous windows of windowSize seconds.
// The last window is shorter when duration is not a multiple of windowSize.
func Split(duration, windowSize float64) ([]Window, error) {
	if !(duration > 0) || math.IsInf(duration, 0) {
		return nil, &InvalidInputError{Field: "duration", Value: duration}
	}
	if !(windowSize > 0) || math.IsInf(windowSize, 0) {
		return nil, &InvalidInputError{Field: "window size", Value: windowSize}
	}
	count := int(math.Ceil(duration / windowSize))
	windows := make([]Window, 0, count)
	for i := 0; ; i++ {
		start := float64(i) * windowSize
		if start >= duration {
			break
		}
		windows = append(windows, Window{
			Index: i,
			Start: start,
			End:   math.Min(float64(i+1)*windowSize, duration),
		})
	}
	return windows, nil
}
