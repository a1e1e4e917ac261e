package audio

import (
	"github.com/foxseedlab/kakiokoshi/internal/audio"
	"github.com/foxseedlab/kakiokoshi/internal/config"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (audio.Processor, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewFFmpegProcessor(FFmpegConfig{
			Path:       c.FFmpegPath,
			SampleRate: c.NormalizeSampleRate,
		}), nil
	})
}
