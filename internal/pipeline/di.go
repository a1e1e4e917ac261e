package pipeline

import (
	"github.com/foxseedlab/kakiokoshi/internal/audio"
	"github.com/foxseedlab/kakiokoshi/internal/config"
	"github.com/foxseedlab/kakiokoshi/internal/metrics"
	"github.com/foxseedlab/kakiokoshi/internal/notify"
	"github.com/foxseedlab/kakiokoshi/internal/transcriber"
	"github.com/foxseedlab/kakiokoshi/internal/transcript"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Runner, error) {
		cfg := do.MustInvoke[*config.Config](i)
		proc := do.MustInvoke[audio.Processor](i)
		stt := do.MustInvoke[transcriber.Transcriber](i)
		notifiers := do.MustInvoke[notify.Multi](i)
		rec := do.MustInvoke[metrics.Recorder](i)
		return NewRunner(proc, stt, transcript.NewParser(cfg.ParserConfig()), notifiers, rec, Options{
			WindowSeconds: cfg.ChunkWindowSeconds,
			TempDir:       cfg.TempDir,
			Prompt:        transcriber.BuildPrompt(cfg.PromptConfig()),
		}), nil
	})
}

