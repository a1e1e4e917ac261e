package config

import (
	"fmt"
	"time"

	"github.com/foxseedlab/kakiokoshi/internal/transcriber"
	"github.com/foxseedlab/kakiokoshi/internal/transcript"
)

const (
	BackendGemini      = "gemini"
	BackendCloudSpeech = "cloud_speech"
	BackendOpenAI      = "openai"
)

type Config struct {
	Env                        string
	ListenAddr                 string
	MaxUploadMB                int
	TempDir                    string
	ChunkWindowSeconds         float64
	TimestampGrammar           transcript.Grammar
	SpeakerLabel               string
	SegmentEstimateSeconds     float64
	TranscribeLanguage         string
	TranscribeLanguageCode     string
	TranscribeContext          string
	TranscribeTimeout          time.Duration
	TranscriptionBackend       string
	GeminiAPIKey               string
	GeminiBaseURL              string
	GeminiModel                string
	GeminiFallbackModel        string
	GoogleCloudProjectID       string
	GoogleCloudCredentialsJSON string
	GoogleCloudSpeechLocation  string
	GoogleCloudSpeechModel     string
	GoogleCloudSpeechSpeakers  int
	OpenAIAPIKey               string
	OpenAIBaseURL              string
	OpenAIModel                string
	FFmpegPath                 string
	NormalizeSampleRate        int
	TranscriptWebhookURL       string
	DiscordToken               string
	DiscordChannelID           string
}

func (c *Config) Validate() error {
	for _, req := range c.requiredFieldChecks() {
		if req.value == "" {
			return fmt.Errorf("%s is required", req.name)
		}
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive, got %d", c.MaxUploadMB)
	}
	if c.ChunkWindowSeconds <= 0 {
		return fmt.Errorf("CHUNK_WINDOW_SECONDS must be positive, got %v", c.ChunkWindowSeconds)
	}
	if c.SegmentEstimateSeconds <= 0 {
		return fmt.Errorf("SEGMENT_ESTIMATE_SECONDS must be positive, got %v", c.SegmentEstimateSeconds)
	}
	if c.NormalizeSampleRate <= 0 {
		return fmt.Errorf("NORMALIZE_SAMPLE_RATE must be positive, got %d", c.NormalizeSampleRate)
	}
	if _, err := transcript.ParseGrammar(string(c.TimestampGrammar)); err != nil {
		return fmt.Errorf("TIMESTAMP_GRAMMAR is invalid: %w", err)
	}
	if c.GoogleCloudSpeechSpeakers < 0 {
		return fmt.Errorf("GOOGLE_CLOUD_SPEECH_MAX_SPEAKERS must not be negative, got %d", c.GoogleCloudSpeechSpeakers)
	}
	if c.TimestampGrammar == transcript.GrammarMinutesSeconds && c.ChunkWindowSeconds > transcript.MaxMinutesSecondsSpan {
		return fmt.Errorf("CHUNK_WINDOW_SECONDS must be at most %d with TIMESTAMP_GRAMMAR=%s, got %v",
			transcript.MaxMinutesSecondsSpan, transcript.GrammarMinutesSeconds, c.ChunkWindowSeconds)
	}
	if (c.DiscordToken == "") != (c.DiscordChannelID == "") {
		return fmt.Errorf("DISCORD_TOKEN and DISCORD_CHANNEL_ID must be set together")
	}
	return c.validateBackend()
}

func (c *Config) validateBackend() error {
	switch c.TranscriptionBackend {
	case BackendGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required when TRANSCRIPTION_BACKEND=%s", BackendGemini)
		}
	case BackendCloudSpeech:
		if c.GoogleCloudProjectID == "" || c.GoogleCloudCredentialsJSON == "" {
			return fmt.Errorf("GOOGLE_CLOUD_PROJECT_ID and GOOGLE_CLOUD_CREDENTIALS_JSON are required when TRANSCRIPTION_BACKEND=%s", BackendCloudSpeech)
		}
	case BackendOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when TRANSCRIPTION_BACKEND=%s", BackendOpenAI)
		}
	default:
		return fmt.Errorf("TRANSCRIPTION_BACKEND %q is not supported", c.TranscriptionBackend)
	}
	return nil
}

type requiredEnvField struct {
	name  string
	value string
}

func (c *Config) requiredFieldChecks() []requiredEnvField {
	return []requiredEnvField{
		{name: "LISTEN_ADDR", value: c.ListenAddr},
		{name: "TEMP_DIR", value: c.TempDir},
		{name: "TRANSCRIBE_LANGUAGE", value: c.TranscribeLanguage},
		{name: "TRANSCRIPTION_BACKEND", value: c.TranscriptionBackend},
		{name: "FFMPEG_PATH", value: c.FFmpegPath},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) ParserConfig() transcript.ParserConfig {
	return transcript.ParserConfig{
		Grammar:         c.TimestampGrammar,
		SpeakerLabel:    c.SpeakerLabel,
		SegmentEstimate: c.SegmentEstimateSeconds,
	}
}

func (c *Config) PromptConfig() transcriber.PromptConfig {
	return transcriber.PromptConfig{
		Language:     c.TranscribeLanguage,
		Context:      c.TranscribeContext,
		SpeakerLabel: c.SpeakerLabel,
		Grammar:      c.TimestampGrammar,
	}
}
