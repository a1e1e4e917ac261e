package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/foxseedlab/kakiokoshi/internal/notify"
	"github.com/foxseedlab/kakiokoshi/internal/transcript"
)

const payloadSchemaVersion = "2026-10-01"

type transcriptPayload struct {
	SchemaVersion   string               `json:"schema_version"`
	ID              string               `json:"id"`
	FileName        string               `json:"file_name"`
	DurationSeconds float64              `json:"duration_seconds"`
	SegmentCount    int                  `json:"segment_count"`
	Segments        []transcript.Segment `json:"segments"`
	Transcript      string               `json:"transcript"`
}

type HTTPSender struct {
	webhookURL string
	client     *http.Client
}

func NewHTTPSender(webhookURL string) *HTTPSender {
	return &HTTPSender{
		webhookURL: webhookURL,
		client:     &http.Client{},
	}
}

func (s *HTTPSender) NotifyTranscript(ctx context.Context, t notify.Transcript) error {
	if s.webhookURL == "" {
		return nil
	}

	b, err := json.Marshal(newTranscriptPayload(t))
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if !isHTTPSuccessStatus(resp.StatusCode) {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func newTranscriptPayload(t notify.Transcript) transcriptPayload {
	segments := t.Result.Segments
	if segments == nil {
		segments = []transcript.Segment{}
	}
	return transcriptPayload{
		SchemaVersion:   payloadSchemaVersion,
		ID:              t.Result.ID,
		FileName:        t.Result.FileName,
		DurationSeconds: t.Result.Duration,
		SegmentCount:    len(segments),
		Segments:        segments,
		Transcript:      string(t.Text),
	}
}

func isHTTPSuccessStatus(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}
