package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/foxseedlab/kakiokoshi/internal/pipeline"
	"github.com/foxseedlab/kakiokoshi/internal/transcript"
	"github.com/foxseedlab/kakiokoshi/internal/upload"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Multipart framing around the audio part needs some headroom over the file limit.
const bodyLimitHeadroomMB = 1

type Runner interface {
	Run(ctx context.Context, src pipeline.Source) transcript.Result
	RunWithProgress(ctx context.Context, src pipeline.Source, emit pipeline.ProgressFunc) transcript.Result
}

type MetricsObserver interface {
	ObserveAPICall(method, path string, code int, elapsed time.Duration)
	Handler() http.Handler
}

type Config struct {
	ListenAddr string
	TempDir    string
	Policy     upload.Policy
}

type Server struct {
	echo    *echo.Echo
	runner  Runner
	metrics MetricsObserver
	cfg     Config
}

func NewServer(cfg Config, runner Runner, m MetricsObserver) *Server {
	s := &Server{
		echo:    echo.New(),
		runner:  runner,
		metrics: m,
		cfg:     cfg,
	}
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.HTTPErrorHandler = s.handleError

	s.echo.Use(s.requestLogger)
	if mb := cfg.Policy.MaxMB(); mb > 0 {
		s.echo.Use(middleware.BodyLimit(fmt.Sprintf("%dM", mb+bodyLimitHeadroomMB)))
	}
	s.echo.Use(middleware.Recover())

	s.echo.GET("/healthz", s.handleHealth)
	if m != nil {
		s.echo.GET("/metrics", echo.WrapHandler(m.Handler()))
	}
	api := s.echo.Group("/api")
	api.POST("/transcribe", s.handleTranscribe)
	api.POST("/transcribe/stream", s.handleTranscribeStream)
	return s
}

func (s *Server) Start() error {
	slog.Info("http server listening", "addr", s.cfg.ListenAddr)
	if err := s.echo.Start(s.cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}
		req := c.Request()
		status := c.Response().Status
		elapsed := time.Since(start)
		if s.metrics != nil && c.Path() != "/metrics" {
			s.metrics.ObserveAPICall(req.Method, c.Path(), status, elapsed)
		}
		slog.Info("http request",
			"method", req.Method,
			"path", req.URL.Path,
			"status", status,
			"elapsed", elapsed)
		return nil
	}
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	message := "Internal server error."
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		message = http.StatusText(code)
		if msg, ok := he.Message.(string); ok && msg != "" {
			message = msg
		}
	}
	if code == http.StatusRequestEntityTooLarge {
		message = fmt.Sprintf("The file is too large. The maximum size is %dMB.", s.cfg.Policy.MaxMB())
	}
	if code >= http.StatusInternalServerError {
		slog.Error("http handler failed", "error", err, "path", c.Request().URL.Path)
	}
	if err := c.JSON(code, errorResponse{Error: message}); err != nil {
		slog.Error("failed to write error response", "error", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
