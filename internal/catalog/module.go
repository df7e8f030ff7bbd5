package catalog

import (
	"github.com/brizzai/auto-xhr/internal/config"
	"go.uber.org/fx"
)

// NewFromConfig loads the catalog named by cfg. Without an OpenAPI file the
// catalog is empty.
func NewFromConfig(cfg *config.Config, adjuster *Adjuster) (*Catalog, error) {
	c := NewCatalog(adjuster)
	if cfg.OpenAPIFile == "" {
		return c, nil
	}
	if err := c.Init(cfg.OpenAPIFile, cfg.AdjustmentsFile); err != nil {
		return nil, err
	}
	return c, nil
}

// Module provides the catalog dependencies
var Module = fx.Module("catalog",
	fx.Provide(
		NewFromConfig,
		NewAdjuster,
	),
)
