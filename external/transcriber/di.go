package transcriber

import (
	"context"
	"fmt"
	"time"

	"github.com/foxseedlab/kakiokoshi/internal/config"
	"github.com/foxseedlab/kakiokoshi/internal/transcriber"
	"github.com/samber/do/v2"
)

const clientInitTimeout = 15 * time.Second

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (transcriber.Transcriber, error) {
		c := do.MustInvoke[*config.Config](i)
		ctx, cancel := context.WithTimeout(context.Background(), clientInitTimeout)
		defer cancel()

		primary, fallback, err := newBackend(ctx, c)
		if err != nil {
			return nil, err
		}
		return transcriber.NewFallbackTranscriber(primary, fallback), nil
	})
}

func newBackend(ctx context.Context, c *config.Config) (transcriber.Transcriber, transcriber.FallbackConfig, error) {
	fallback := transcriber.FallbackConfig{AttemptTimeout: c.TranscribeTimeout}
	switch c.TranscriptionBackend {
	case config.BackendGemini:
		client, err := NewGeminiClient(ctx, GeminiConfig{
			APIKey:  c.GeminiAPIKey,
			BaseURL: c.GeminiBaseURL,
		})
		if err != nil {
			return nil, fallback, err
		}
		if c.GeminiFallbackModel != "" && c.GeminiFallbackModel != c.GeminiModel {
			fallback.Fallback = NewGeminiTranscriber(client, c.GeminiFallbackModel)
			fallback.Prompt = transcriber.BuildFallbackPrompt(c.PromptConfig())
		}
		return NewGeminiTranscriber(client, c.GeminiModel), fallback, nil
	case config.BackendCloudSpeech:
		stt, err := NewCloudSpeechTranscriber(ctx, CloudSpeechConfig{
			ProjectID:       c.GoogleCloudProjectID,
			CredentialsJSON: c.GoogleCloudCredentialsJSON,
			Language:        c.TranscribeLanguageCode,
			Location:        c.GoogleCloudSpeechLocation,
			Model:           c.GoogleCloudSpeechModel,
			Grammar:         c.TimestampGrammar,
			SpeakerLabel:    c.SpeakerLabel,
			MaxSpeakers:     c.GoogleCloudSpeechSpeakers,
		})
		if err != nil {
			return nil, fallback, err
		}
		return stt, fallback, nil
	case config.BackendOpenAI:
		return NewOpenAITranscriber(OpenAIConfig{
			APIKey:       c.OpenAIAPIKey,
			BaseURL:      c.OpenAIBaseURL,
			Model:        c.OpenAIModel,
			LanguageCode: c.TranscribeLanguageCode,
			Grammar:      c.TimestampGrammar,
			SpeakerLabel: c.SpeakerLabel,
		}), fallback, nil
	default:
		return nil, fallback, fmt.Errorf("unsupported transcription backend %q", c.TranscriptionBackend)
	}
}
