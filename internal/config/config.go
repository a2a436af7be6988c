// Package config loads matcher configuration from YAML files and maps it
// onto the match package option structs.
package config

import (
	"fmt"
	"os"

	"shape-matcher/internal/match"

	"gopkg.in/yaml.v3"
)

// Config mirrors the YAML configuration file.
type Config struct {
	CannyThreshold   float64 `yaml:"cannyThreshold"`
	MinContourPoints int     `yaml:"minContourPoints"`
	SimplifyEpsilon  float64 `yaml:"simplifyEpsilon"`

	Grid struct {
		Size                int     `yaml:"size"`
		MaxDistanceError    float64 `yaml:"maxDistanceError"`
		MaxOrientationError float64 `yaml:"maxOrientationError"`
		MinMatches          int     `yaml:"minMatches"`
	} `yaml:"grid"`

	Scale struct {
		Min  float64 `yaml:"min"`
		Max  float64 `yaml:"max"`
		Step float64 `yaml:"step"`
	} `yaml:"scale"`

	Search struct {
		Strategy  string `yaml:"strategy"`
		Rejection string `yaml:"rejection"`
		StepX     int    `yaml:"stepX"`
		StepY     int    `yaml:"stepY"`
	} `yaml:"search"`

	Detect struct {
		Matching          string  `yaml:"matching"`
		UseOrientation    bool    `yaml:"useOrientation"`
		Lambda            float64 `yaml:"lambda"`
		WeightForward     float64 `yaml:"weightForward"`
		WeightBackward    float64 `yaml:"weightBackward"`
		DistanceThreshold float64 `yaml:"distanceThreshold"`
		MaxDetections     int     `yaml:"maxDetections"`
		Group             bool    `yaml:"group"`
		GroupOverlap      float64 `yaml:"groupOverlap"`
	} `yaml:"detect"`
}

// Default returns a Config populated with the package defaults.
func Default() *Config {
	matcher := match.DefaultOptions()
	detect := match.DefaultDetectOptions()

	var c Config
	c.CannyThreshold = matcher.CannyThreshold
	c.MinContourPoints = matcher.MinContourPoints
	c.SimplifyEpsilon = matcher.SimplifyEpsilon
	c.Grid.Size = matcher.GridSize
	c.Grid.MaxDistanceError = matcher.MaxDescriptorDistance
	c.Grid.MaxOrientationError = matcher.MaxDescriptorOrientation
	c.Grid.MinMatches = matcher.MinDescriptorMatches
	c.Scale.Min = matcher.ScaleMin
	c.Scale.Max = matcher.ScaleMax
	c.Scale.Step = matcher.ScaleStep
	c.Search.Strategy = "template"
	c.Search.Rejection = "grid"
	c.Search.StepX = matcher.StepX
	c.Search.StepY = matcher.StepY
	c.Detect.Matching = detect.Matching.String()
	c.Detect.UseOrientation = detect.UseOrientation
	c.Detect.Lambda = detect.Lambda
	c.Detect.WeightForward = detect.WeightForward
	c.Detect.WeightBackward = detect.WeightBackward
	c.Detect.DistanceThreshold = detect.DistanceThreshold
	c.Detect.MaxDetections = detect.MaxDetections
	c.Detect.Group = detect.GroupDetections
	c.Detect.GroupOverlap = detect.GroupOverlap
	return &c
}

// Load reads a YAML configuration file. Missing fields keep their default
// values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Save writes the configuration to a YAML file.
func Save(path string, c *Config) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config YAML: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

func (c *Config) validate() error {
	if c.CannyThreshold <= 0 {
		return fmt.Errorf("cannyThreshold must be positive")
	}
	if c.Scale.Min <= 0 || c.Scale.Max <= 0 || c.Scale.Max < c.Scale.Min || c.Scale.Step <= 0 {
		return fmt.Errorf("invalid scale range [%g, %g] step %g", c.Scale.Min, c.Scale.Max, c.Scale.Step)
	}
	if c.Search.StepX <= 0 || c.Search.StepY <= 0 {
		return fmt.Errorf("search steps must be positive")
	}
	if c.Detect.MaxDetections <= 0 {
		return fmt.Errorf("detect.maxDetections must be positive")
	}
	if _, err := match.ParseMatchingType(c.Detect.Matching); err != nil {
		return err
	}
	if _, err := match.ParseRejectionType(c.Search.Rejection); err != nil {
		return err
	}
	if _, err := match.ParseSearchStrategy(c.Search.Strategy); err != nil {
		return err
	}
	return nil
}

// MatcherOptions converts the configuration to match.Options.
func (c *Config) MatcherOptions() (match.Options, error) {
	strategy, err := match.ParseSearchStrategy(c.Search.Strategy)
	if err != nil {
		return match.Options{}, err
	}
	rejection, err := match.ParseRejectionType(c.Search.Rejection)
	if err != nil {
		return match.Options{}, err
	}

	opts := match.DefaultOptions()
	opts.CannyThreshold = c.CannyThreshold
	opts.MinContourPoints = c.MinContourPoints
	opts.SimplifyEpsilon = c.SimplifyEpsilon
	opts.GridSize = c.Grid.Size
	opts.Strategy = strategy
	opts.Rejection = rejection
	opts.MaxDescriptorDistance = c.Grid.MaxDistanceError
	opts.MaxDescriptorOrientation = c.Grid.MaxOrientationError
	opts.MinDescriptorMatches = c.Grid.MinMatches
	opts.StepX = c.Search.StepX
	opts.StepY = c.Search.StepY
	opts.ScaleMin = c.Scale.Min
	opts.ScaleMax = c.Scale.Max
	opts.ScaleStep = c.Scale.Step
	return opts, nil
}

// DetectOptions converts the configuration to match.DetectOptions.
func (c *Config) DetectOptions() (match.DetectOptions, error) {
	matching, err := match.ParseMatchingType(c.Detect.Matching)
	if err != nil {
		return match.DetectOptions{}, err
	}

	opts := match.DefaultDetectOptions()
	opts.Matching = matching
	opts.UseOrientation = c.Detect.UseOrientation
	opts.Lambda = c.Detect.Lambda
	opts.WeightForward = c.Detect.WeightForward
	opts.WeightBackward = c.Detect.WeightBackward
	opts.DistanceThreshold = c.Detect.DistanceThreshold
	opts.MaxDetections = c.Detect.MaxDetections
	opts.GroupDetections = c.Detect.Group
	opts.GroupOverlap = c.Detect.GroupOverlap
	return opts, nil
}
