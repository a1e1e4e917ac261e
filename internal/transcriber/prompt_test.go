package transcriber

import (
	"strings"
	"testing"

	"github.com/foxseedlab/kakiokoshi/internal/transcript"
)

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt(PromptConfig{
		Language:     "Romanian",
		Context:      "court hearing recordings",
		SpeakerLabel: "Vorbitor",
		Grammar:      transcript.GrammarMinutesSeconds,
	})

	for _, want := range []string{"Romanian", "court hearing recordings", "[Vorbitor 1]", "[MM:SS]", "parentheses"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt should mention %q:\n%s", want, prompt)
		}
	}
}

func TestBuildPrompt_Defaults(t *testing.T) {
	prompt := BuildPrompt(PromptConfig{Language: "English"})

	if !strings.Contains(prompt, "[Speaker 1]") || !strings.Contains(prompt, "[HH:MM:SS]") {
		t.Fatalf("unexpected default prompt:\n%s", prompt)
	}
	if strings.Contains(prompt, "Context:") {
		t.Fatalf("empty context must be omitted:\n%s", prompt)
	}
}
