package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	internalconfig "github.com/foxseedlab/kakiokoshi/internal/config"
	"github.com/foxseedlab/kakiokoshi/internal/transcript"
	"github.com/joho/godotenv"
)

type envConfig struct {
	Env                        string        `env:"ENV" envDefault:"production"`
	ListenAddr                 string        `env:"LISTEN_ADDR" envDefault:":8080"`
	MaxUploadMB                int           `env:"MAX_UPLOAD_MB" envDefault:"500"`
	TempDir                    string        `env:"TEMP_DIR"`
	ChunkWindowSeconds         float64       `env:"CHUNK_WINDOW_SECONDS" envDefault:"300"`
	TimestampGrammar           string        `env:"TIMESTAMP_GRAMMAR" envDefault:"hh:mm:ss"`
	SpeakerLabel               string        `env:"SPEAKER_LABEL" envDefault:"Speaker"`
	SegmentEstimateSeconds     float64       `env:"SEGMENT_ESTIMATE_SECONDS" envDefault:"30"`
	TranscribeLanguage         string        `env:"TRANSCRIBE_LANGUAGE" envDefault:"Romanian"`
	TranscribeLanguageCode     string        `env:"TRANSCRIBE_LANGUAGE_CODE" envDefault:"ro-RO"`
	TranscribeContext          string        `env:"TRANSCRIBE_CONTEXT"`
	TranscribeTimeout          time.Duration `env:"TRANSCRIBE_TIMEOUT" envDefault:"5m"`
	TranscriptionBackend       string        `env:"TRANSCRIPTION_BACKEND" envDefault:"gemini"`
	GeminiAPIKey               string        `env:"GEMINI_API_KEY"`
	GeminiBaseURL              string        `env:"GEMINI_BASE_URL"`
	GeminiModel                string        `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash"`
	GeminiFallbackModel        string        `env:"GEMINI_FALLBACK_MODEL" envDefault:"gemini-1.5-pro"`
	GoogleCloudProjectID       string        `env:"GOOGLE_CLOUD_PROJECT_ID"`
	GoogleCloudCredentialsJSON string        `env:"GOOGLE_CLOUD_CREDENTIALS_JSON"`
	GoogleCloudSpeechLocation  string        `env:"GOOGLE_CLOUD_SPEECH_LOCATION" envDefault:"global"`
	GoogleCloudSpeechModel     string        `env:"GOOGLE_CLOUD_SPEECH_MODEL" envDefault:"long"`
	GoogleCloudSpeechSpeakers  int           `env:"GOOGLE_CLOUD_SPEECH_MAX_SPEAKERS" envDefault:"6"`
	OpenAIAPIKey               string        `env:"OPENAI_API_KEY"`
	OpenAIBaseURL              string        `env:"OPENAI_BASE_URL"`
	OpenAIModel                string        `env:"OPENAI_MODEL" envDefault:"whisper-1"`
	FFmpegPath                 string        `env:"FFMPEG_PATH" envDefault:"ffmpeg"`
	NormalizeSampleRate        int           `env:"NORMALIZE_SAMPLE_RATE" envDefault:"16000"`
	TranscriptWebhookURL       string        `env:"TRANSCRIPT_WEBHOOK_URL"`
	DiscordToken               string        `env:"DISCORD_TOKEN"`
	DiscordChannelID           string        `env:"DISCORD_CHANNEL_ID"`
}

// Load reads an optional dotenv file (ENV_FILE, default .env) and then the
// process environment. Variables already set in the environment win.
func Load() (*internalconfig.Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}
	grammar, err := transcript.ParseGrammar(raw.TimestampGrammar)
	if err != nil {
		return nil, fmt.Errorf("TIMESTAMP_GRAMMAR is invalid: %w", err)
	}
	tempDir := raw.TempDir
	if tempDir == "" {
		tempDir = filepath.Join(os.TempDir(), "kakiokoshi")
	}

	cfg := &internalconfig.Config{
		Env:                        raw.Env,
		ListenAddr:                 raw.ListenAddr,
		MaxUploadMB:                raw.MaxUploadMB,
		TempDir:                    tempDir,
		ChunkWindowSeconds:         raw.ChunkWindowSeconds,
		TimestampGrammar:           grammar,
		SpeakerLabel:               raw.SpeakerLabel,
		SegmentEstimateSeconds:     raw.SegmentEstimateSeconds,
		TranscribeLanguage:         raw.TranscribeLanguage,
		TranscribeLanguageCode:     raw.TranscribeLanguageCode,
		TranscribeContext:          raw.TranscribeContext,
		TranscribeTimeout:          raw.TranscribeTimeout,
		TranscriptionBackend:       raw.TranscriptionBackend,
		GeminiAPIKey:               raw.GeminiAPIKey,
		GeminiBaseURL:              raw.GeminiBaseURL,
		GeminiModel:                raw.GeminiModel,
		GeminiFallbackModel:        raw.GeminiFallbackModel,
		GoogleCloudProjectID:       raw.GoogleCloudProjectID,
		GoogleCloudCredentialsJSON: raw.GoogleCloudCredentialsJSON,
		GoogleCloudSpeechLocation:  raw.GoogleCloudSpeechLocation,
		GoogleCloudSpeechModel:     raw.GoogleCloudSpeechModel,
		GoogleCloudSpeechSpeakers:  raw.GoogleCloudSpeechSpeakers,
		OpenAIAPIKey:               raw.OpenAIAPIKey,
		OpenAIBaseURL:              raw.OpenAIBaseURL,
		OpenAIModel:                raw.OpenAIModel,
		FFmpegPath:                 raw.FFmpegPath,
		NormalizeSampleRate:        raw.NormalizeSampleRate,
		TranscriptWebhookURL:       raw.TranscriptWebhookURL,
		DiscordToken:               raw.DiscordToken,
		DiscordChannelID:           raw.DiscordChannelID,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadDotEnv() error {
	path := os.Getenv("ENV_FILE")
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	err := godotenv.Load(path)
	if err == nil {
		return nil
	}
	if !explicit && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load env file %s: %w", path, err)
}
