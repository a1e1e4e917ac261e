package transcript

import "fmt"

type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

type Segment struct {
	ID        string  `json:"id"`
	StartTime float64 `json:"startTime"`
	EndTime   float64 `json:"endTime"`
	Text      string  `json:"text"`
	Speaker   string  `json:"speaker,omitempty"`
}

type Result struct {
	ID       string    `json:"id"`
	FileName string    `json:"fileName"`
	Duration float64   `json:"duration"`
	Segments []Segment `json:"segments"`
	Status   Status    `json:"status"`
	Error    string    `json:"error,omitempty"`
}

// Renumber assigns sequential ids across segments gathered from several chunks.
func Renumber(segments []Segment) {
	for i := range segments {
		segments[i].ID = segmentID(i)
	}
}

func segmentID(i int) string {
	return fmt.Sprintf("segment-%d", i)
}
