package httpserver

import (
	metricsimpl "github.com/foxseedlab/kakiokoshi/external/metrics"
	"github.com/foxseedlab/kakiokoshi/internal/config"
	"github.com/foxseedlab/kakiokoshi/internal/pipeline"
	"github.com/foxseedlab/kakiokoshi/internal/upload"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Server, error) {
		c := do.MustInvoke[*config.Config](i)
		runner := do.MustInvoke[*pipeline.Runner](i)
		prom := do.MustInvoke[*metricsimpl.Prometheus](i)
		return NewServer(Config{
			ListenAddr: c.ListenAddr,
			TempDir:    c.TempDir,
			Policy:     upload.NewPolicy(c.MaxUploadMB),
		}, runner, prom), nil
	})
}
