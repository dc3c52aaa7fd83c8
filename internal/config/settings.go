// Package config loads the ambient "repomap.yaml" engine settings. The
// engine's other configuration surface, the tsconfig-style root
// module-resolution config, is loaded by internal/resolver (config.go) and
// stays JSON because it belongs to the indexed repository, not to this
// tool.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultSettingsYAML []byte

// RankerWeights overrides the default scoring weights from §4.7.
// Settings.RankerWeights is populated from defaults.yaml first and
// repomap.yaml is decoded over it, so a config that omits the section (or
// some of its keys) keeps the default values; weights written as 0 are
// used as 0.
type RankerWeights struct {
	PPR            float64 `yaml:"ppr" validate:"gte=0,lte=1"`
	Risk           float64 `yaml:"risk" validate:"gte=0,lte=1"`
	BoundaryImpact float64 `yaml:"boundary_impact" validate:"gte=0,lte=1"`
	TestGap        float64 `yaml:"test_gap" validate:"gte=0,lte=1"`
	Freshness      float64 `yaml:"freshness" validate:"gte=0,lte=1"`
}

// RemoteBackendSettings configures the optional GCS mirror from C6.
type RemoteBackendSettings struct {
	Enabled bool   `yaml:"enabled"`
	Bucket  string `yaml:"bucket" validate:"required_if=Enabled true"`
	Prefix  string `yaml:"prefix"`
}

// Settings is the ambient engine-settings surface: worker pool size,
// extra ignore globs, ranker weight overrides, cache directory, enabled
// persistence backends.
type Settings struct {
	WorkerCount       int                   `yaml:"worker_count" validate:"gte=1"`
	ExtraIgnoreGlobs  []string              `yaml:"extra_ignore_globs"`
	CacheDir          string                `yaml:"cache_dir" validate:"required"`
	RankerWeights     RankerWeights         `yaml:"ranker_weights"`
	RemoteBackend     RemoteBackendSettings `yaml:"remote_backend"`
}

// Load reads repomap.yaml from repoRoot, falling back to the embedded
// defaults when the file is absent (zero-config works out of the box,
// per the teacher's loadTraceConfig pattern). Only an existing-but-
// malformed file is an error.
func Load(repoRoot string) (*Settings, error) {
	settings, err := parse(defaultSettingsYAML)
	if err != nil {
		return nil, fmt.Errorf("parse embedded defaults: %w", err)
	}

	path := filepath.Join(repoRoot, "repomap.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, validateSettings(settings)
		}
		return nil, fmt.Errorf("read repomap.yaml: %w", err)
	}

	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("parse repomap.yaml: %w", err)
	}
	return settings, validateSettings(settings)
}

func parse(data []byte) (*Settings, error) {
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

var validate = validator.New()

func validateSettings(s *Settings) error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}
