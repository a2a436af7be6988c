package match

import "fmt"

// MatchingType selects the cost function family used to score a candidate
// alignment.
type MatchingType int

const (
	// EdgeMatching scores template contour pixels against the query
	// distance field (forward only).
	EdgeMatching MatchingType = iota
	// EdgeForwardBackward adds the symmetric backward term over query
	// contour pixels inside the template footprint.
	EdgeForwardBackward
	// LineMatching iterates rasterized simplified line segments instead of
	// raw contour pixels.
	LineMatching
	// LineForwardBackward is the symmetric line variant.
	LineForwardBackward
	// FullMatching compares the entire distance fields over the window.
	FullMatching
	// MaskMatching restricts the full comparison to the template mask.
	MaskMatching
	// ForwardBackwardMaskMatching restricts it to the union of template and
	// query masks.
	ForwardBackwardMaskMatching
)

func (t MatchingType) String() string {
	switch t {
	case EdgeMatching:
		return "edge"
	case EdgeForwardBackward:
		return "edge-forward-backward"
	case LineMatching:
		return "line"
	case LineForwardBackward:
		return "line-forward-backward"
	case FullMatching:
		return "full"
	case MaskMatching:
		return "mask"
	case ForwardBackwardMaskMatching:
		return "mask-forward-backward"
	default:
		return "unknown"
	}
}

// ParseMatchingType resolves a matching type name as used in config files.
func ParseMatchingType(s string) (MatchingType, error) {
	for _, t := range []MatchingType{
		EdgeMatching, EdgeForwardBackward, LineMatching, LineForwardBackward,
		FullMatching, MaskMatching, ForwardBackwardMaskMatching,
	} {
		if t.String() == s {
			return t, nil
		}
	}
	return EdgeMatching, fmt.Errorf("unknown matching type %q", s)
}

// RejectionType selects the admission filter applied before full cost
// evaluation.
type RejectionType int

const (
	// GridDescriptorRejection prunes candidate offsets whose sparse
	// (distance, orientation) signature disagrees with the template.
	GridDescriptorRejection RejectionType = iota
	// NoRejection evaluates every candidate offset.
	NoRejection
)

// ParseRejectionType resolves a rejection type name.
func ParseRejectionType(s string) (RejectionType, error) {
	switch s {
	case "grid", "grid-descriptor":
		return GridDescriptorRejection, nil
	case "none":
		return NoRejection, nil
	}
	return GridDescriptorRejection, fmt.Errorf("unknown rejection type %q", s)
}

// SearchStrategy selects how the search region is derived.
type SearchStrategy int

const (
	// TemplateSearch slides over the search region (or the whole map).
	TemplateSearch SearchStrategy = iota
	// PoseSearch evaluates the single offset where the template was
	// originally extracted, verifying a known pose instead of searching.
	PoseSearch
)

// ParseSearchStrategy resolves a strategy name.
func ParseSearchStrategy(s string) (SearchStrategy, error) {
	switch s {
	case "template":
		return TemplateSearch, nil
	case "pose":
		return PoseSearch, nil
	}
	return TemplateSearch, fmt.Errorf("unknown search strategy %q", s)
}

// Options configures a Matcher. These settings apply to template
// preparation and to every search the matcher runs.
type Options struct {
	// CannyThreshold is the low edge-detection threshold used for both
	// templates and queries.
	CannyThreshold float64

	// MinContourPoints and SimplifyEpsilon are passed to the shape builder.
	MinContourPoints int
	SimplifyEpsilon  float64

	// GridSize is the descriptor grid dimension for templates.
	GridSize int

	// Strategy selects template search or pose verification.
	Strategy SearchStrategy

	// Rejection and the descriptor tolerances configure the admission
	// filter.
	Rejection                RejectionType
	MaxDescriptorDistance    float64
	MaxDescriptorOrientation float64
	MinDescriptorMatches     int

	// StepX and StepY are the sliding-search strides in pixels.
	StepX int
	StepY int

	// Scale sweep bounds for multi-scale matching.
	ScaleMin  float64
	ScaleMax  float64
	ScaleStep float64
}

// DefaultOptions returns the matcher defaults.
func DefaultOptions() Options {
	return Options{
		CannyThreshold:           50.0,
		MinContourPoints:         2,
		SimplifyEpsilon:          3.0,
		GridSize:                 4,
		Strategy:                 TemplateSearch,
		Rejection:                GridDescriptorRejection,
		MaxDescriptorDistance:    10.0,
		MaxDescriptorOrientation: 0.35,
		MinDescriptorMatches:     5,
		StepX:                    5,
		StepY:                    5,
		ScaleMin:                 0.5,
		ScaleMax:                 2.0,
		ScaleStep:                0.1,
	}
}

// DetectOptions configures one detection call.
type DetectOptions struct {
	// Matching selects the cost strategy.
	Matching MatchingType

	// UseOrientation adds the orientation disagreement term, weighted by
	// Lambda.
	UseOrientation bool
	Lambda         float64

	// WeightForward and WeightBackward scale the two passes of the
	// symmetric variants.
	WeightForward  float64
	WeightBackward float64

	// DistanceThreshold is the maximum cost for a cell to count as a
	// detection.
	DistanceThreshold float64

	// MaxDetections caps the minimum-extraction loop.
	MaxDetections int

	// GroupDetections clusters overlapping raw detections; GroupOverlap is
	// the IoU threshold for absorbing a detection into a cluster.
	GroupDetections bool
	GroupOverlap    float64
}

// DefaultDetectOptions returns per-call detection defaults.
func DefaultDetectOptions() DetectOptions {
	return DetectOptions{
		Matching:          EdgeMatching,
		UseOrientation:    true,
		Lambda:            5.0,
		WeightForward:     1.0,
		WeightBackward:    1.0,
		DistanceThreshold: 20.0,
		MaxDetections:     100,
		GroupDetections:   true,
		GroupOverlap:      0.5,
	}
}
