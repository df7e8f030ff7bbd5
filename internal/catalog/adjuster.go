package catalog

import (
	"os"
	"slices"

	"github.com/brizzai/auto-xhr/internal/logger"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// DescriptionUpdate replaces the description of one method on a path.
type DescriptionUpdate struct {
	Method         string `yaml:"method"`
	NewDescription string `yaml:"new_description"`
}

// RouteDescription groups the description updates of a path.
type RouteDescription struct {
	Path    string              `yaml:"path"`
	Updates []DescriptionUpdate `yaml:"updates"`
}

// RouteSelection lists the methods of a path to include.
type RouteSelection struct {
	Path    string   `yaml:"path"`
	Methods []string `yaml:"methods"`
}

// Adjustments is the on-disk shape of an adjustments file.
type Adjustments struct {
	Descriptions []RouteDescription `yaml:"descriptions,omitempty"`
	Routes       []RouteSelection   `yaml:"routes,omitempty"`
}

// Adjuster provides filtering and description overrides based on YAML configuration
type Adjuster struct {
	adjustments *Adjustments
}

// NewAdjuster creates an Adjuster that keeps every operation.
func NewAdjuster() *Adjuster {
	return &Adjuster{adjustments: &Adjustments{}}
}

// NewAdjusterFrom creates an Adjuster from already decoded adjustments.
func NewAdjusterFrom(adj *Adjustments) *Adjuster {
	return &Adjuster{adjustments: adj}
}

// Load loads adjustments from a YAML file. A missing file leaves the
// adjuster unchanged.
func (a *Adjuster) Load(filePath string) error {
	if filePath == "" {
		return nil
	}

	logger.Info("Loading adjustments from file", zap.String("file", filePath))
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		logger.Warn("Adjustments file not found", zap.String("file", filePath))
		return nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}

	var adjustments Adjustments
	if err := yaml.Unmarshal(data, &adjustments); err != nil {
		return err
	}
	a.adjustments = &adjustments
	return nil
}

// ExistsInCatalog reports whether route+method is selected. With no route
// selections everything is.
func (a *Adjuster) ExistsInCatalog(route, method string) bool {
	if a.adjustments == nil || len(a.adjustments.Routes) == 0 {
		return true
	}

	for _, selection := range a.adjustments.Routes {
		if selection.Path == route {
			return slices.Contains(selection.Methods, method)
		}
	}
	return false
}

// GetDescription returns the override for route+method, or originalDesc.
func (a *Adjuster) GetDescription(route, method, originalDesc string) string {
	if a.adjustments == nil {
		return originalDesc
	}

	for _, desc := range a.adjustments.Descriptions {
		if desc.Path != route {
			continue
		}
		for _, update := range desc.Updates {
			if update.Method == method {
				return update.NewDescription
			}
		}
		break
	}
	return originalDesc
}
