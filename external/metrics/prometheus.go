package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/foxseedlab/kakiokoshi/internal/metrics"
	"github.com/foxseedlab/kakiokoshi/internal/transcript"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "kakiokoshi"

// Prometheus records pipeline and API metrics on its own registry so tests
// and multiple injectors never collide on the global one.
type Prometheus struct {
	registry      *prometheus.Registry
	chunks        *prometheus.CounterVec
	chunkSeconds  *prometheus.HistogramVec
	segments      prometheus.Counter
	runs          *prometheus.CounterVec
	runSeconds    prometheus.Histogram
	audioSeconds  prometheus.Counter
	apiCallMetric *prometheus.HistogramVec
}

func NewPrometheus() *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		chunks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_total",
			Help:      "Audio chunks processed, by outcome.",
		}, []string{"outcome"}),
		chunkSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chunk_duration_seconds",
			Help:      "Wall time spent on one chunk, by outcome.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}, []string{"outcome"}),
		segments: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_total",
			Help:      "Transcript segments produced.",
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Transcription runs finished, by final status.",
		}, []string{"status"}),
		runSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a whole transcription run.",
			Buckets:   prometheus.ExponentialBuckets(5, 2, 12),
		}),
		audioSeconds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_seconds_total",
			Help:      "Seconds of audio transcribed by completed runs.",
		}),
		apiCallMetric: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_call_duration_seconds",
			Help:      "HTTP API latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "code"}),
	}
	p.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		p.chunks, p.chunkSeconds, p.segments,
		p.runs, p.runSeconds, p.audioSeconds,
		p.apiCallMetric,
	)
	return p
}

func (p *Prometheus) ObserveChunk(outcome metrics.ChunkOutcome, elapsed time.Duration, segments int) {
	p.chunks.WithLabelValues(string(outcome)).Inc()
	p.chunkSeconds.WithLabelValues(string(outcome)).Observe(elapsed.Seconds())
	if segments > 0 {
		p.segments.Add(float64(segments))
	}
}

func (p *Prometheus) ObserveRun(status transcript.Status, audioSeconds float64, elapsed time.Duration) {
	p.runs.WithLabelValues(string(status)).Inc()
	p.runSeconds.Observe(elapsed.Seconds())
	if status == transcript.StatusCompleted && audioSeconds > 0 {
		p.audioSeconds.Add(audioSeconds)
	}
}

func (p *Prometheus) ObserveAPICall(method, path string, code int, elapsed time.Duration) {
	p.apiCallMetric.WithLabelValues(method, path, strconv.Itoa(code)).Observe(elapsed.Seconds())
}

func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}
