package transcriber

import (
	"fmt"
	"strings"

	"github.com/foxseedlab/kakiokoshi/internal/transcript"
)

type PromptConfig struct {
	Language     string
	Context      string
	SpeakerLabel string
	Grammar      transcript.Grammar
}

func BuildPrompt(cfg PromptConfig) string {
	label := cfg.SpeakerLabel
	if label == "" {
		label = transcript.DefaultSpeakerLabel
	}
	format := strings.ToUpper(string(cfg.Grammar))
	if format == "" {
		format = strings.ToUpper(string(transcript.GrammarHoursMinutesSeconds))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Transcribe this audio file. The spoken language is %s.\n", cfg.Language)
	if c := strings.TrimSpace(cfg.Context); c != "" {
		fmt.Fprintf(&b, "Context: %s\n", c)
	}
	b.WriteString("\nPlease:\n")
	fmt.Fprintf(&b, "1. Transcribe the speech verbatim in %s.\n", cfg.Language)
	fmt.Fprintf(&b, "2. Identify the different speakers and mark each change with [%s 1], [%s 2], etc.\n", label, label)
	fmt.Fprintf(&b, "3. Start every utterance on a new line with a timestamp in the format [%s], measured from the start of this file.\n", format)
	b.WriteString("4. Keep the original structure of the conversation.\n")
	b.WriteString("5. Include relevant non-speech sounds (coughing, laughter, etc.) in parentheses.\n")
	b.WriteString("\nRespond only with the transcription, without additional comments.\n")
	return b.String()
}

// BuildFallbackPrompt is the shorter instruction used with the secondary model.
func BuildFallbackPrompt(cfg PromptConfig) string {
	return fmt.Sprintf("Transcribe this audio file in %s. Respond only with the transcription.", cfg.Language)
}
