package pipeline

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/foxseedlab/kakiokoshi/internal/transcript"
)

func buildTranscriptText(result transcript.Result) []byte {
	lines := []string{
		fmt.Sprintf("File: %s", result.FileName),
		fmt.Sprintf("Duration: %s", formatElapsedHMS(secondsToDuration(result.Duration))),
		fmt.Sprintf("Segments: %d", len(result.Segments)),
		"",
	}
	for _, seg := range result.Segments {
		stamp := formatElapsedHMS(secondsToDuration(seg.StartTime))
		if seg.Speaker != "" {
			lines = append(lines, fmt.Sprintf("%s [%s] %s", stamp, seg.Speaker, seg.Text))
			continue
		}
		lines = append(lines, fmt.Sprintf("%s %s", stamp, seg.Text))
	}
	return []byte(strings.Join(lines, "\n"))
}

func secondsToDuration(seconds float64) time.Duration {
	if seconds <= 0 || math.IsNaN(seconds) {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}

func formatElapsedHMS(d time.Duration) string {
	total := int64(d / time.Second)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
