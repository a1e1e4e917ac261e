package transcriber

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/foxseedlab/kakiokoshi/internal/transcriber"
	"google.golang.org/genai"
)

type GeminiConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type GeminiTranscriber struct {
	client *genai.Client
	model  string
}

func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*genai.Client, error) {
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: base}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return client, nil
}

func NewGeminiTranscriber(client *genai.Client, model string) transcriber.Transcriber {
	return &GeminiTranscriber{client: client, model: strings.TrimSpace(model)}
}

func (t *GeminiTranscriber) Transcribe(ctx context.Context, req transcriber.Request) (string, error) {
	slog.Debug("calling gemini", "model", t.model, "mime_type", req.MimeType, "audio_bytes", len(req.Audio))
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(req.Prompt),
			genai.NewPartFromBytes(req.Audio, req.MimeType),
		}, genai.RoleUser),
	}
	resp, err := t.client.Models.GenerateContent(ctx, t.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("gemini %s: %w", t.model, err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("gemini %s returned an empty transcription", t.model)
	}
	return text, nil
}
