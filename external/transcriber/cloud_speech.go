package transcriber

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"cloud.google.com/go/auth/credentials"
	speech "cloud.google.com/go/speech/apiv2"
	speechpb "cloud.google.com/go/speech/apiv2/speechpb"
	"github.com/foxseedlab/kakiokoshi/internal/transcriber"
	"github.com/foxseedlab/kakiokoshi/internal/transcript"
	"google.golang.org/api/option"
	"google.golang.org/grpc/status"
)

const speechAPIEndpointPort = 443

type CloudSpeechConfig struct {
	ProjectID       string
	CredentialsJSON string
	Language        string
	Location        string
	Model           string
	Grammar         transcript.Grammar
	SpeakerLabel    string
	// MaxSpeakers enables diarization when positive. Not every model and
	// language supports it; set 0 to turn it off.
	MaxSpeakers int
}

// CloudSpeechTranscriber runs synchronous Speech-to-Text v2 recognition per
// chunk. Synchronous recognition only accepts short audio, so it is meant
// for deployments with a small CHUNK_WINDOW_SECONDS.
type CloudSpeechTranscriber struct {
	client      *speech.Client
	recognizer  string
	language    string
	model       string
	maxSpeakers int
	format      lineFormat
}

func NewCloudSpeechTranscriber(ctx context.Context, cfg CloudSpeechConfig) (*CloudSpeechTranscriber, error) {
	location := strings.TrimSpace(cfg.Location)
	if location == "" {
		location = "global"
	}
	model := strings.TrimSpace(cfg.Model)

	creds, err := credentials.DetectDefault(&credentials.DetectOptions{
		CredentialsJSON: []byte(cfg.CredentialsJSON),
		Scopes:          []string{"https://www.googleapis.com/auth/cloud-platform"},
	})
	if err != nil {
		return nil, fmt.Errorf("detect credentials: %w", err)
	}

	opts := []option.ClientOption{
		option.WithAuthCredentials(creds),
	}
	if location != "global" {
		opts = append(opts, option.WithEndpoint(fmt.Sprintf("%s-speech.googleapis.com:%d", location, speechAPIEndpointPort)))
	}

	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create speech client: %w", err)
	}
	slog.Info("cloud speech client initialized", "location", location, "language", cfg.Language, "model", model)

	return &CloudSpeechTranscriber{
		client:      client,
		recognizer:  fmt.Sprintf("projects/%s/locations/%s/recognizers/_", cfg.ProjectID, location),
		language:    cfg.Language,
		model:       model,
		maxSpeakers: cfg.MaxSpeakers,
		format:      lineFormat{grammar: cfg.Grammar, speakerLabel: cfg.SpeakerLabel},
	}, nil
}

func (t *CloudSpeechTranscriber) Transcribe(ctx context.Context, req transcriber.Request) (string, error) {
	resp, err := t.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Recognizer:  t.recognizer,
		Config:      t.recognitionConfig(),
		AudioSource: &speechpb.RecognizeRequest_Content{Content: req.Audio},
	})
	if err != nil {
		return "", describeSpeechError(err)
	}
	return t.format.render(resultLines(resp.GetResults())), nil
}

func (t *CloudSpeechTranscriber) recognitionConfig() *speechpb.RecognitionConfig {
	features := &speechpb.RecognitionFeatures{
		EnableWordTimeOffsets:      true,
		EnableAutomaticPunctuation: true,
	}
	if t.maxSpeakers > 0 {
		features.DiarizationConfig = &speechpb.SpeakerDiarizationConfig{
			MinSpeakerCount: 1,
			MaxSpeakerCount: int32(t.maxSpeakers),
		}
	}
	return &speechpb.RecognitionConfig{
		Model:         t.model,
		LanguageCodes: []string{t.language},
		DecodingConfig: &speechpb.RecognitionConfig_AutoDecodingConfig{
			AutoDecodingConfig: &speechpb.AutoDetectDecodingConfig{},
		},
		Features: features,
	}
}

func (t *CloudSpeechTranscriber) Close() error {
	return t.client.Close()
}

func resultLines(results []*speechpb.SpeechRecognitionResult) []timedLine {
	lines := make([]timedLine, 0, len(results))
	var prevEnd float64
	for _, result := range results {
		alts := result.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		alt := alts[0]
		line := timedLine{start: prevEnd, text: alt.GetTranscript()}
		if words := alt.GetWords(); len(words) > 0 {
			line.start = words[0].GetStartOffset().AsDuration().Seconds()
			line.speaker = words[0].GetSpeakerLabel()
		}
		lines = append(lines, line)
		if end := result.GetResultEndOffset(); end != nil {
			prevEnd = end.AsDuration().Seconds()
		}
	}
	return lines
}

func describeSpeechError(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("cloud speech recognize: %w", err)
	}
	return fmt.Errorf("cloud speech recognize (%s): %s: %w", st.Code(), st.Message(), err)
}
