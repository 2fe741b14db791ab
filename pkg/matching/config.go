package matching

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Weights are the relative importance of each category in the confidence.
// Every weight must be positive.
type Weights struct {
	Identity     float64 `yaml:"identity" json:"identity" validate:"gt=0"`
	Contact      float64 `yaml:"contact" json:"contact" validate:"gt=0"`
	Professional float64 `yaml:"professional" json:"professional" validate:"gt=0"`
	Documents    float64 `yaml:"documents" json:"documents" validate:"gt=0"`
}

// Thresholds are the scores a category must exceed to take part in the confidence
type Thresholds struct {
	Identity     float64 `yaml:"identity" json:"identity" validate:"gte=0,lte=1"`
	Contact      float64 `yaml:"contact" json:"contact" validate:"gte=0,lte=1"`
	Professional float64 `yaml:"professional" json:"professional" validate:"gte=0,lte=1"`
	Documents    float64 `yaml:"documents" json:"documents" validate:"gte=0,lte=1"`
}

// Config contains the classifier's tunables
type Config struct {
	Weights            Weights    `yaml:"weights" json:"weights"`
	Thresholds         Thresholds `yaml:"thresholds" json:"thresholds"`
	DuplicateThreshold float64    `yaml:"duplicate_threshold" json:"duplicate_threshold" validate:"gt=0,lte=1"`
}

// DefaultConfig returns the default classifier configuration
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			Identity:     0.40,
			Contact:      0.25,
			Professional: 0.20,
			Documents:    0.15,
		},
		Thresholds: Thresholds{
			Identity:     0.7,
			Contact:      0.7,
			Professional: 0.7,
			Documents:    0.9,
		},
		DuplicateThreshold: 0.8,
	}
}

// Validate checks the bounds of every value
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid matching config: %w", err)
	}
	return nil
}

// LoadConfigFile reads a YAML matching config. Keys missing from the file keep
// their default value.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read matching config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse matching config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}
