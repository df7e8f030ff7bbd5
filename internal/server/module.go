package server

import (
	"github.com/brizzai/auto-xhr/internal/auth"
	"github.com/brizzai/auto-xhr/internal/config"
	"github.com/brizzai/auto-xhr/internal/server/tool"
	"github.com/brizzai/auto-xhr/internal/xhr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/fx"
)

// MetricsResult exposes the registry both as a gatherer for /metrics and as
// the adapter's request metrics.
type MetricsResult struct {
	fx.Out

	Gatherer prometheus.Gatherer
	Metrics  *xhr.Metrics
}

// NewMetrics creates the registry served on /metrics. When metrics are
// disabled nothing is registered.
func NewMetrics(cfg *config.MetricsConfig) MetricsResult {
	if cfg == nil || !cfg.Enabled {
		return MetricsResult{}
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return MetricsResult{
		Gatherer: reg,
		Metrics:  xhr.NewMetrics(reg),
	}
}

// Module provides the MCP server dependencies
var Module = fx.Module("mcp_server",
	fx.Provide(
		NewMetrics,
		auth.NewFromConfig,
		func(c *xhr.Client) tool.Doer { return c },
		NewServer,
	),
)
