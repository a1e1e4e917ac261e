package audio

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func writeTestWAV(t *testing.T, path string, sampleRate, samples int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create wav: %v", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           make([]int, samples),
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("failed to write samples: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("failed to close encoder: %v", err)
	}
}

func TestDuration_ReadsWAVHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "normalized.wav")
	writeTestWAV(t, path, 16000, 40000)

	p := NewFFmpegProcessor(FFmpegConfig{})
	got, err := p.Duration(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(got-2.5) > 1e-6 {
		t.Fatalf("expected 2.5s, got %v", got)
	}
}

func TestDuration_RejectsNonWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not.wav")
	if err := os.WriteFile(path, []byte("definitely not riff data"), 0o600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if _, err := NewFFmpegProcessor(FFmpegConfig{}).Duration(context.Background(), path); err == nil {
		t.Fatal("expected error for non-wav input")
	}
}

func TestExtract_RejectsEmptyRange(t *testing.T) {
	p := NewFFmpegProcessor(FFmpegConfig{})
	if _, err := p.Extract(context.Background(), "in.wav", 10, 10, t.TempDir()); err == nil {
		t.Fatal("expected error for empty range")
	}
}

func TestNormalize_MissingBinary(t *testing.T) {
	p := NewFFmpegProcessor(FFmpegConfig{Path: filepath.Join(t.TempDir(), "no-ffmpeg")})
	if _, err := p.Normalize(context.Background(), "in.mp3", t.TempDir()); err == nil {
		t.Fatal("expected error when ffmpeg is missing")
	}
}

// fakeFFmpeg writes a script that records its arguments and creates the output file.
func fakeFFmpeg(t *testing.T) (binary, argsFile string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fake requires a unix shell")
	}
	dir := t.TempDir()
	argsFile = filepath.Join(dir, "args.txt")
	binary = filepath.Join(dir, "ffmpeg")
	script := "#!/bin/sh\necho \"$@\" > " + argsFile + "\nfor last; do :; done\n: > \"$last\"\n"
	if err := os.WriteFile(binary, []byte(script), 0o700); err != nil {
		t.Fatalf("failed to write fake ffmpeg: %v", err)
	}
	return binary, argsFile
}

func TestNormalize_InvokesFFmpegForMono16k(t *testing.T) {
	bin, argsFile := fakeFFmpeg(t)
	workDir := t.TempDir()
	p := NewFFmpegProcessor(FFmpegConfig{Path: bin, SampleRate: 16000})

	out, err := p.Normalize(context.Background(), "/uploads/abc_hearing.mp3", workDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != filepath.Join(workDir, "abc_hearing_converted.wav") {
		t.Fatalf("unexpected output path: %s", out)
	}
	args, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatalf("failed to read recorded args: %v", err)
	}
	for _, want := range []string{"-i /uploads/abc_hearing.mp3", "-ac 1", "-ar 16000", "-f wav"} {
		if !strings.Contains(string(args), want) {
			t.Fatalf("expected %q in ffmpeg args: %s", want, args)
		}
	}
}

func TestExtract_InvokesFFmpegWithRange(t *testing.T) {
	bin, argsFile := fakeFFmpeg(t)
	workDir := t.TempDir()
	p := NewFFmpegProcessor(FFmpegConfig{Path: bin})

	out, err := p.Extract(context.Background(), filepath.Join(workDir, "x_converted.wav"), 300, 412.5, workDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Base(out) != "x_converted_segment_300_412.5.wav" {
		t.Fatalf("unexpected output name: %s", out)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("expected output file to exist: %v", err)
	}
	args, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatalf("failed to read recorded args: %v", err)
	}
	if !strings.Contains(string(args), "-ss 300 -t 112.5") {
		t.Fatalf("unexpected range args: %s", args)
	}
}
