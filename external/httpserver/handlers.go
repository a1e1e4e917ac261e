package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/foxseedlab/kakiokoshi/internal/pipeline"
	"github.com/foxseedlab/kakiokoshi/internal/transcript"
	"github.com/foxseedlab/kakiokoshi/internal/upload"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	formFieldAudio     = "audio"
	contentTypeNDJSON  = "application/x-ndjson"
	messageStageFailed = "Failed to store the uploaded file."
)

func (s *Server) handleTranscribe(c echo.Context) error {
	src, err := s.stageUpload(c)
	if err != nil {
		return s.uploadError(c, err)
	}
	defer s.removeStaged(src)

	result := s.runner.Run(c.Request().Context(), src)
	status := http.StatusOK
	if result.Status == transcript.StatusError {
		status = http.StatusInternalServerError
	}
	return c.JSON(status, result)
}

// handleTranscribeStream writes one JSON event per line and flushes after
// each, so clients can render progress while chunks are transcribed. Once
// the stream has started, failures arrive as a terminal error event.
func (s *Server) handleTranscribeStream(c echo.Context) error {
	src, err := s.stageUpload(c)
	if err != nil {
		return s.uploadError(c, err)
	}
	defer s.removeStaged(src)

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, contentTypeNDJSON)
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("X-Accel-Buffering", "no")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	enc := json.NewEncoder(res)
	s.runner.RunWithProgress(c.Request().Context(), src, func(ev pipeline.Event) {
		if err := enc.Encode(ev); err != nil {
			slog.Debug("failed to write progress event", "error", err, "job_id", src.ID)
			return
		}
		res.Flush()
	})
	return nil
}

// stageUpload validates the audio part and copies it to the temp dir.
// Nothing touches the disk when validation fails.
func (s *Server) stageUpload(c echo.Context) (pipeline.Source, error) {
	fh, err := c.FormFile(formFieldAudio)
	if err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return pipeline.Source{}, he
		}
		return pipeline.Source{}, s.cfg.Policy.Validate("", "", 0)
	}
	if err := s.cfg.Policy.Validate(fh.Filename, fh.Header.Get(echo.HeaderContentType), fh.Size); err != nil {
		return pipeline.Source{}, err
	}

	f, err := fh.Open()
	if err != nil {
		return pipeline.Source{}, fmt.Errorf("open upload: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	if err := os.MkdirAll(s.cfg.TempDir, 0o750); err != nil {
		return pipeline.Source{}, fmt.Errorf("prepare temp dir: %w", err)
	}
	id := uuid.NewString()
	dst := filepath.Join(s.cfg.TempDir, id+"_"+filepath.Base(fh.Filename))
	out, err := os.Create(dst)
	if err != nil {
		return pipeline.Source{}, fmt.Errorf("create staged file: %w", err)
	}
	if _, err := io.Copy(out, f); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return pipeline.Source{}, fmt.Errorf("copy upload: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return pipeline.Source{}, fmt.Errorf("close staged file: %w", err)
	}
	slog.Debug("upload staged", "job_id", id, "file_name", fh.Filename, "bytes", fh.Size)
	return pipeline.Source{ID: id, FileName: fh.Filename, Path: dst}, nil
}

func (s *Server) uploadError(c echo.Context, err error) error {
	var invalid *upload.ValidationError
	if errors.As(err, &invalid) {
		slog.Info("upload rejected", "reason", invalid.Reason)
		return c.JSON(http.StatusBadRequest, errorResponse{Error: invalid.Message})
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	slog.Error("failed to stage upload", "error", err)
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: messageStageFailed})
}

func (s *Server) removeStaged(src pipeline.Source) {
	if err := os.Remove(src.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to delete staged upload", "error", err, "job_id", src.ID, "path", src.Path)
	}
}
