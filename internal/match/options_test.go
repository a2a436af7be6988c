package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchingTypeRoundTrip(t *testing.T) {
	types := []MatchingType{
		EdgeMatching, EdgeForwardBackward, LineMatching, LineForwardBackward,
		FullMatching, MaskMatching, ForwardBackwardMaskMatching,
	}
	for _, typ := range types {
		parsed, err := ParseMatchingType(typ.String())
		require.NoError(t, err)
		assert.Equal(t, typ, parsed)
	}

	_, err := ParseMatchingType("chamfer")
	assert.Error(t, err)
}

func TestParseRejectionType(t *testing.T) {
	for _, name := range []string{"grid", "grid-descriptor"} {
		parsed, err := ParseRejectionType(name)
		require.NoError(t, err)
		assert.Equal(t, GridDescriptorRejection, parsed)
	}

	parsed, err := ParseRejectionType("none")
	require.NoError(t, err)
	assert.Equal(t, NoRejection, parsed)

	_, err = ParseRejectionType("bogus")
	assert.Error(t, err)
}

func TestParseSearchStrategy(t *testing.T) {
	parsed, err := ParseSearchStrategy("template")
	require.NoError(t, err)
	assert.Equal(t, TemplateSearch, parsed)

	parsed, err = ParseSearchStrategy("pose")
	require.NoError(t, err)
	assert.Equal(t, PoseSearch, parsed)

	_, err = ParseSearchStrategy("sliding")
	assert.Error(t, err)
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, 50.0, opts.CannyThreshold)
	assert.Equal(t, 4, opts.GridSize)
	assert.Equal(t, 10.0, opts.MaxDescriptorDistance)
	assert.Equal(t, 0.35, opts.MaxDescriptorOrientation)
	assert.Equal(t, 5, opts.MinDescriptorMatches)
	assert.Equal(t, 0.5, opts.ScaleMin)
	assert.Equal(t, 2.0, opts.ScaleMax)
	assert.Equal(t, 0.1, opts.ScaleStep)

	detect := DefaultDetectOptions()
	assert.Equal(t, EdgeMatching, detect.Matching)
	assert.True(t, detect.UseOrientation)
	assert.Equal(t, 100, detect.MaxDetections)
	assert.Equal(t, 0.5, detect.GroupOverlap)
}
