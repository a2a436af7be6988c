package config

import (
	"os"
	"path/filepath"
	"testing"

	"shape-matcher/internal/match"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMatchesPackageDefaults(t *testing.T) {
	c := Default()
	matcher := match.DefaultOptions()

	assert.Equal(t, matcher.CannyThreshold, c.CannyThreshold)
	assert.Equal(t, matcher.GridSize, c.Grid.Size)
	assert.Equal(t, matcher.ScaleMin, c.Scale.Min)
	assert.Equal(t, "template", c.Search.Strategy)
	assert.Equal(t, "grid", c.Search.Rejection)
	assert.Equal(t, "edge", c.Detect.Matching)

	opts, err := c.MatcherOptions()
	require.NoError(t, err)
	assert.Equal(t, matcher, opts)

	detect, err := c.DetectOptions()
	require.NoError(t, err)
	assert.Equal(t, match.DefaultDetectOptions(), detect)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
cannyThreshold: 75
grid:
  size: 6
scale:
  min: 0.8
  max: 1.2
  step: 0.2
search:
  strategy: pose
  rejection: none
detect:
  matching: line-forward-backward
  distanceThreshold: 8.5
`)

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 75.0, c.CannyThreshold)
	assert.Equal(t, 6, c.Grid.Size)
	assert.Equal(t, 0.8, c.Scale.Min)
	assert.Equal(t, 0.2, c.Scale.Step)

	// Untouched fields keep their defaults.
	assert.Equal(t, match.DefaultOptions().MaxDescriptorDistance, c.Grid.MaxDistanceError)
	assert.Equal(t, match.DefaultDetectOptions().MaxDetections, c.Detect.MaxDetections)

	opts, err := c.MatcherOptions()
	require.NoError(t, err)
	assert.Equal(t, match.PoseSearch, opts.Strategy)
	assert.Equal(t, match.NoRejection, opts.Rejection)

	detect, err := c.DetectOptions()
	require.NoError(t, err)
	assert.Equal(t, match.LineForwardBackward, detect.Matching)
	assert.Equal(t, 8.5, detect.DistanceThreshold)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"bad matching name": `
detect:
  matching: chamfer
`,
		"bad scale range": `
scale:
  min: 2.0
  max: 0.5
  step: 0.1
`,
		"zero step": `
search:
  stepX: 0
`,
		"negative canny": `
cannyThreshold: -1
`,
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestLoadMalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "cannyThreshold: [not a number"))
	assert.Error(t, err)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	c := Default()
	c.CannyThreshold = 66
	c.Grid.Size = 5
	c.Detect.Matching = "mask"

	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, Save(path, c))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, c, loaded)
}
