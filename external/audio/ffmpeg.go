package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/foxseedlab/kakiokoshi/internal/audio"
	"github.com/go-audio/wav"
)

const (
	normalizedChannels = 1
	maxStderrBytes     = 2048
)

type FFmpegConfig struct {
	Path       string
	SampleRate int
}

// FFmpegProcessor shells out to ffmpeg for decoding and cutting, and reads
// durations straight from the normalized WAV header.
type FFmpegProcessor struct {
	path       string
	sampleRate int
}

func NewFFmpegProcessor(cfg FFmpegConfig) audio.Processor {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		path = "ffmpeg"
	}
	rate := cfg.SampleRate
	if rate <= 0 {
		rate = 16000
	}
	return &FFmpegProcessor{path: path, sampleRate: rate}
}

func (p *FFmpegProcessor) Normalize(ctx context.Context, src, workDir string) (string, error) {
	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	out := filepath.Join(workDir, base+"_converted.wav")
	args := append([]string{"-i", src}, p.wavOutputArgs(out)...)
	if err := p.run(ctx, args); err != nil {
		return "", fmt.Errorf("normalize %s: %w", filepath.Base(src), err)
	}
	return out, nil
}

func (p *FFmpegProcessor) Duration(_ context.Context, path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = f.Close()
	}()

	dec := wav.NewDecoder(f)
	if err := dec.FwdToPCM(); err != nil {
		return 0, fmt.Errorf("read wav header of %s: %w", filepath.Base(path), err)
	}
	bytesPerSecond := int64(dec.SampleRate) * int64(dec.NumChans) * int64(dec.BitDepth/8)
	if bytesPerSecond == 0 {
		return 0, fmt.Errorf("%s has an invalid wav format", filepath.Base(path))
	}
	return float64(dec.PCMLen()) / float64(bytesPerSecond), nil
}

func (p *FFmpegProcessor) Extract(ctx context.Context, path string, start, end float64, workDir string) (string, error) {
	if end <= start {
		return "", fmt.Errorf("empty chunk range [%v, %v)", start, end)
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	out := filepath.Join(workDir, fmt.Sprintf("%s_segment_%s_%s.wav", base, formatSeconds(start), formatSeconds(end)))
	args := []string{
		"-ss", formatSeconds(start),
		"-t", formatSeconds(end - start),
		"-i", path,
	}
	args = append(args, p.wavOutputArgs(out)...)
	if err := p.run(ctx, args); err != nil {
		return "", fmt.Errorf("extract chunk %s-%s: %w", formatSeconds(start), formatSeconds(end), err)
	}
	return out, nil
}

func (p *FFmpegProcessor) wavOutputArgs(out string) []string {
	return []string{
		"-ac", strconv.Itoa(normalizedChannels),
		"-ar", strconv.Itoa(p.sampleRate),
		"-acodec", "pcm_s16le",
		"-f", "wav",
		out,
	}
}

func (p *FFmpegProcessor) run(ctx context.Context, args []string) error {
	full := append([]string{"-hide_banner", "-loglevel", "error", "-y"}, args...)
	cmd := exec.CommandContext(ctx, p.path, full...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	slog.Debug("running ffmpeg", "args", full)
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("ffmpeg exited with %d: %s", exitErr.ExitCode(), truncate(stderr.String(), maxStderrBytes))
		}
		return fmt.Errorf("ffmpeg: %w", err)
	}
	return nil
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
