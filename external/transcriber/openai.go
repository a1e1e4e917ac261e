package transcriber

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/foxseedlab/kakiokoshi/internal/transcriber"
	"github.com/foxseedlab/kakiokoshi/internal/transcript"
	openai "github.com/sashabaranov/go-openai"
)

type OpenAIConfig struct {
	APIKey       string
	BaseURL      string
	Model        string
	LanguageCode string
	Grammar      transcript.Grammar
	SpeakerLabel string
}

// OpenAITranscriber uses the Whisper transcription endpoint. Whisper has no
// instruction prompt, so req.Prompt is ignored and the timed segments are
// rendered into the shared line format instead.
type OpenAITranscriber struct {
	client   *openai.Client
	model    string
	language string
	format   lineFormat
}

func NewOpenAITranscriber(cfg OpenAIConfig) transcriber.Transcriber {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		clientCfg.BaseURL = base
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = openai.Whisper1
	}
	return &OpenAITranscriber{
		client:   openai.NewClientWithConfig(clientCfg),
		model:    model,
		language: isoLanguage(cfg.LanguageCode),
		format:   lineFormat{grammar: cfg.Grammar, speakerLabel: cfg.SpeakerLabel},
	}
}

func (t *OpenAITranscriber) Transcribe(ctx context.Context, req transcriber.Request) (string, error) {
	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: "chunk" + extensionFor(req.MimeType),
		Reader:   bytes.NewReader(req.Audio),
		Language: t.language,
		Format:   openai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		return "", fmt.Errorf("openai %s: %w", t.model, err)
	}
	if len(resp.Segments) == 0 {
		return resp.Text, nil
	}
	lines := make([]timedLine, 0, len(resp.Segments))
	for _, seg := range resp.Segments {
		lines = append(lines, timedLine{start: seg.Start, text: seg.Text})
	}
	return t.format.render(lines), nil
}

// isoLanguage turns a BCP-47 tag such as ro-RO into the ISO-639-1 code Whisper expects.
func isoLanguage(code string) string {
	code = strings.TrimSpace(code)
	if i := strings.IndexAny(code, "-_"); i > 0 {
		code = code[:i]
	}
	return strings.ToLower(code)
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "audio/mpeg":
		return ".mp3"
	case "audio/mp4":
		return ".m4a"
	case "audio/ogg":
		return ".ogg"
	case "audio/webm":
		return ".webm"
	default:
		return ".wav"
	}
}
