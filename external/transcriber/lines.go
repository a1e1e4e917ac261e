package transcriber

import (
	"strings"

	"github.com/foxseedlab/kakiokoshi/internal/transcript"
)

// timedLine is one utterance from a backend that returns structured timings.
// It is rendered in the same notation the generative models are asked for,
// so every backend's reply goes through the same parser.
type timedLine struct {
	start   float64
	speaker string
	text    string
}

type lineFormat struct {
	grammar      transcript.Grammar
	speakerLabel string
}

func (f lineFormat) render(lines []timedLine) string {
	var b strings.Builder
	for _, l := range lines {
		text := strings.TrimSpace(l.text)
		if text == "" {
			continue
		}
		b.WriteString("[")
		b.WriteString(f.grammar.FormatTimestamp(l.start))
		b.WriteString("] ")
		if l.speaker != "" {
			b.WriteString("[")
			b.WriteString(f.speakerLabel)
			b.WriteString(" ")
			b.WriteString(l.speaker)
			b.WriteString("] ")
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	return b.String()
}
