package metrics

import (
	"github.com/foxseedlab/kakiokoshi/internal/metrics"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Prometheus, error) {
		return NewPrometheus(), nil
	})
	do.Provide(injector, func(i do.Injector) (metrics.Recorder, error) {
		return do.MustInvoke[*Prometheus](i), nil
	})
}
