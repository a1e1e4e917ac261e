package httpserver

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/foxseedlab/kakiokoshi/internal/pipeline"
	"github.com/foxseedlab/kakiokoshi/internal/transcript"
	"github.com/foxseedlab/kakiokoshi/internal/upload"
)

type fakeRunner struct {
	result  transcript.Result
	events  []pipeline.Event
	sources []pipeline.Source
	staged  []bool
}

func (f *fakeRunner) Run(ctx context.Context, src pipeline.Source) transcript.Result {
	return f.RunWithProgress(ctx, src, nil)
}

func (f *fakeRunner) RunWithProgress(_ context.Context, src pipeline.Source, emit pipeline.ProgressFunc) transcript.Result {
	f.sources = append(f.sources, src)
	_, err := os.Stat(src.Path)
	f.staged = append(f.staged, err == nil)
	if emit != nil {
		for _, ev := range f.events {
			emit(ev)
		}
	}
	return f.result
}

type recordingMetrics struct {
	calls []string
}

func (m *recordingMetrics) ObserveAPICall(method, path string, code int, _ time.Duration) {
	m.calls = append(m.calls, method+" "+path)
}

func (m *recordingMetrics) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("kakiokoshi_runs_total 1\n"))
	})
}

func newTestServer(t *testing.T, runner *fakeRunner) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	return NewServer(Config{
		ListenAddr: ":0",
		TempDir:    dir,
		Policy:     upload.NewPolicy(1),
	}, runner, &recordingMetrics{}), dir
}

func multipartRequest(t *testing.T, path, field, fileName, contentType string, body []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+fileName+`"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(body); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func completedResult() transcript.Result {
	return transcript.Result{
		ID:       "job-1",
		FileName: "interviu.mp3",
		Duration: 65,
		Status:   transcript.StatusCompleted,
		Segments: []transcript.Segment{{ID: "segment-0", StartTime: 5, EndTime: 35, Text: "Bună ziua."}},
	}
}

func assertDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected staged uploads to be removed, found %d entries", len(entries))
	}
}

func TestTranscribe_Success(t *testing.T) {
	runner := &fakeRunner{result: completedResult()}
	srv, dir := newTestServer(t, runner)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, multipartRequest(t, "/api/transcribe", "audio", "interviu.mp3", "audio/mpeg", []byte("ID3")))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got transcript.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Status != transcript.StatusCompleted || len(got.Segments) != 1 {
		t.Fatalf("unexpected result: %+v", got)
	}
	if len(runner.sources) != 1 || runner.sources[0].FileName != "interviu.mp3" {
		t.Fatalf("unexpected sources: %+v", runner.sources)
	}
	if !runner.staged[0] {
		t.Fatal("expected upload to be staged while the run is in progress")
	}
	if !strings.HasSuffix(runner.sources[0].Path, "_interviu.mp3") {
		t.Fatalf("unexpected staged path: %s", runner.sources[0].Path)
	}
	assertDirEmpty(t, dir)
}

func TestTranscribe_RunErrorIs500(t *testing.T) {
	result := completedResult()
	result.Status = transcript.StatusError
	result.Error = "An error occurred while processing the audio file."
	srv, _ := newTestServer(t, &fakeRunner{result: result})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, multipartRequest(t, "/api/transcribe", "audio", "a.wav", "audio/wav", []byte("RIFF")))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"error"`) {
		t.Fatalf("expected error result body, got %s", rec.Body.String())
	}
}

func TestTranscribe_ValidationFailures(t *testing.T) {
	cases := []struct {
		name    string
		req     func(t *testing.T) *http.Request
		message string
	}{
		{
			name: "missing file",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/api/transcribe", "other", "a.wav", "audio/wav", []byte("RIFF"))
			},
			message: "No audio file was provided.",
		},
		{
			name: "unsupported type",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/api/transcribe", "audio", "notes.txt", "text/plain", []byte("hi"))
			},
			message: "The file type is not supported.",
		},
		{
			name: "too large",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/api/transcribe", "audio", "big.wav", "audio/wav", make([]byte, 1024*1024+10))
			},
			message: "The file is too large. The maximum size is 1MB.",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			runner := &fakeRunner{result: completedResult()}
			srv, dir := newTestServer(t, runner)

			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, tc.req(t))

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
			var body errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Error != tc.message {
				t.Fatalf("unexpected message: %q", body.Error)
			}
			if len(runner.sources) != 0 {
				t.Fatal("runner must not be called for invalid uploads")
			}
			assertDirEmpty(t, dir)
		})
	}
}

func TestTranscribeStream_WritesNDJSON(t *testing.T) {
	final := completedResult()
	runner := &fakeRunner{
		result: final,
		events: []pipeline.Event{
			{Type: pipeline.EventProgress, Stage: pipeline.StageStart, Message: "Converting audio...", Progress: 10},
			{Type: pipeline.EventProgress, Stage: pipeline.StageCleanup, Message: "Cleaning up temporary files...", Progress: 95},
			{Type: pipeline.EventComplete, Data: &final},
		},
	}
	srv, dir := newTestServer(t, runner)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, multipartRequest(t, "/api/transcribe/stream", "audio", "a.ogg", "audio/ogg", []byte("OggS")))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != contentTypeNDJSON {
		t.Fatalf("unexpected content type: %s", ct)
	}

	var events []pipeline.Event
	sc := bufio.NewScanner(rec.Body)
	for sc.Scan() {
		var ev pipeline.Event
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
			t.Fatalf("decode line %q: %v", sc.Text(), err)
		}
		events = append(events, ev)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[0].Progress != 10 || events[2].Type != pipeline.EventComplete || events[2].Data == nil {
		t.Fatalf("unexpected events: %+v", events)
	}
	assertDirEmpty(t, dir)
}

func TestTranscribeStream_ValidationFailureIsPlain400(t *testing.T) {
	srv, _ := newTestServer(t, &fakeRunner{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, multipartRequest(t, "/api/transcribe/stream", "audio", "notes.txt", "text/plain", []byte("hi")))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); strings.HasPrefix(ct, contentTypeNDJSON) {
		t.Fatal("validation errors must not start a stream")
	}
}

func TestHealthAndMetrics(t *testing.T) {
	m := &recordingMetrics{}
	srv := NewServer(Config{TempDir: t.TempDir(), Policy: upload.NewPolicy(1)}, &fakeRunner{}, m)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("unexpected health response: %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "kakiokoshi_runs_total") {
		t.Fatalf("unexpected metrics body: %s", rec.Body.String())
	}

	if len(m.calls) != 1 || m.calls[0] != "GET /healthz" {
		t.Fatalf("expected only the health call to be observed, got %v", m.calls)
	}
}
