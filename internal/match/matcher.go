package match

import (
	"fmt"
	"image"
	"math"
	"sort"

	"shape-matcher/internal/logger"
	"shape-matcher/internal/shape"

	"gocv.io/x/gocv"
)

// scaleOne is the canonical template scale. Only the scale-1.0 entry
// carries the template anchors and is persisted.
const scaleOne = 1.0

// Matcher detects template shapes in query images by Chamfer-distance
// matching. Templates are prepared once per scale and reused across
// detection calls; the query representation is rebuilt for every call and
// never stored.
type Matcher struct {
	opts Options

	// templates maps template id -> scale -> prepared shape info.
	templates map[int]map[float64]*shape.Info

	// templateImages keeps the original scale-1.0 images for re-scaling
	// and persistence.
	templateImages map[int]gocv.Mat
}

// NewMatcher creates a Matcher with the given options.
func NewMatcher(opts Options) *Matcher {
	return &Matcher{
		opts:           opts,
		templates:      make(map[int]map[float64]*shape.Info),
		templateImages: make(map[int]gocv.Mat),
	}
}

// Close releases the stored template images.
func (m *Matcher) Close() {
	for _, img := range m.templateImages {
		img.Close()
	}
	m.templateImages = make(map[int]gocv.Mat)
	m.templates = make(map[int]map[float64]*shape.Info)
}

// Options returns the matcher configuration.
func (m *Matcher) Options() Options {
	return m.opts
}

// TemplateIDs returns the configured template ids in ascending order.
func (m *Matcher) TemplateIDs() []int {
	ids := make([]int, 0, len(m.templates))
	for id := range m.templates {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Scales returns the prepared scales for a template id in ascending order.
func (m *Matcher) Scales(id int) []float64 {
	entry, ok := m.templates[id]
	if !ok {
		return nil
	}
	scales := make([]float64, 0, len(entry))
	for s := range entry {
		scales = append(scales, s)
	}
	sort.Float64s(scales)
	return scales
}

// SetTemplates replaces the template collection. The two maps must contain
// exactly the same ids; on any mismatch or build failure the previously
// configured templates are left untouched.
func (m *Matcher) SetTemplates(images map[int]gocv.Mat, regions map[int]TemplateRegion) error {
	if len(images) != len(regions) {
		return fmt.Errorf("template/region count mismatch: %d images, %d regions", len(images), len(regions))
	}
	for id := range images {
		if _, ok := regions[id]; !ok {
			return fmt.Errorf("template id %d has no region entry", id)
		}
	}

	newTemplates := make(map[int]map[float64]*shape.Info, len(images))
	newImages := make(map[int]gocv.Mat, len(images))

	ids := make([]int, 0, len(images))
	for id := range images {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		entry, err := m.prepareScales(images[id], regions[id])
		if err != nil {
			closeImages(newImages)
			return fmt.Errorf("failed to prepare template %d: %w", id, err)
		}
		newTemplates[id] = entry
		newImages[id] = images[id].Clone()
		logger.Debug("prepared template %d at %d scales", id, len(entry))
	}

	closeImages(m.templateImages)
	m.templates = newTemplates
	m.templateImages = newImages
	return nil
}

// SetScaleRange replaces the scale sweep bounds and re-prepares every
// template's non-canonical scales. Invalid parameters or a preparation
// failure are rejected with the previous range and templates retained.
func (m *Matcher) SetScaleRange(minScale, maxScale, step float64) error {
	if err := validScaleRange(minScale, maxScale, step); err != nil {
		return err
	}

	prev := m.opts
	m.opts.ScaleMin = minScale
	m.opts.ScaleMax = maxScale
	m.opts.ScaleStep = step

	rebuilt := make(map[int]map[float64]*shape.Info, len(m.templates))
	for id, entry := range m.templates {
		img, ok := m.templateImages[id]
		if !ok {
			m.opts = prev
			return fmt.Errorf("no stored image for template %d", id)
		}

		next := map[float64]*shape.Info{scaleOne: entry[scaleOne]}
		for _, scale := range m.scaleSweep() {
			info, err := m.prepareTemplate(img, scale)
			if err != nil {
				m.opts = prev
				return fmt.Errorf("failed to rescale template %d to %g: %w", id, scale, err)
			}
			next[scale] = info
		}
		rebuilt[id] = next
	}

	m.templates = rebuilt
	return nil
}

// Detect runs single-scale detection: every template is searched at its
// canonical scale only. The returned detections are tagged with their
// template id and sorted by ascending cost.
func (m *Matcher) Detect(query gocv.Mat, opts DetectOptions) ([]Detection, error) {
	queryInfo, err := m.prepareQuery(query)
	if err != nil {
		return nil, err
	}

	var detections []Detection
	for _, id := range m.TemplateIDs() {
		tpl, ok := m.templates[id][scaleOne]
		if !ok {
			continue
		}

		current := m.detectOne(tpl, queryInfo, scaleOne, opts)
		for i := range current {
			current[i].TemplateID = id
		}
		detections = append(detections, current...)
	}

	sortDetections(detections)
	return detections, nil
}

// DetectMultiScale runs detection over every prepared scale of every
// template. It is not available under pose search, which assumes the one
// canonical scale.
func (m *Matcher) DetectMultiScale(query gocv.Mat, opts DetectOptions) ([]Detection, error) {
	if m.opts.Strategy == PoseSearch {
		return nil, fmt.Errorf("multi-scale detection is not supported with pose search")
	}

	queryInfo, err := m.prepareQuery(query)
	if err != nil {
		return nil, err
	}

	var detections []Detection
	for _, id := range m.TemplateIDs() {
		for _, scale := range m.Scales(id) {
			current := m.detectOne(m.templates[id][scale], queryInfo, scale, opts)
			for i := range current {
				current[i].TemplateID = id
			}
			detections = append(detections, current...)
		}
	}

	sortDetections(detections)
	return detections, nil
}

// detectOne searches one prepared template against the query and extracts
// its detections.
func (m *Matcher) detectOne(tpl, query *shape.Info, scale float64, opts DetectOptions) []Detection {
	eval := newEvaluator(opts.Matching, costParams{
		useOrientation: opts.UseOrientation,
		lambda:         opts.Lambda,
		weightForward:  opts.WeightForward,
		weightBackward: opts.WeightBackward,
	})

	costMap := computeMatchingMap(tpl, query, eval, m.opts)
	detections := extractDetections(costMap, tpl.Width, tpl.Height, scale, opts.DistanceThreshold, opts.MaxDetections)

	if opts.GroupDetections {
		detections = GroupDetections(detections, opts.GroupOverlap)
	}
	return detections
}

// prepareQuery builds the query representation for one detection call.
func (m *Matcher) prepareQuery(query gocv.Mat) (*shape.Info, error) {
	info, err := shape.Build(query, m.builderOptions(false))
	if err != nil {
		return nil, fmt.Errorf("failed to prepare query: %w", err)
	}
	return info, nil
}

// validScaleRange rejects sweep parameters that would never terminate or
// produce no usable scales.
func validScaleRange(minScale, maxScale, step float64) error {
	if minScale <= 0 || maxScale <= 0 || maxScale < minScale || step <= 0 {
		return fmt.Errorf("invalid scale range [%g, %g] step %g", minScale, maxScale, step)
	}
	return nil
}

// prepareScales builds the canonical entry with its anchors plus the scale
// sweep entries for one template image. The configured scale range is
// validated here so that an unchecked Options value cannot drive the sweep.
func (m *Matcher) prepareScales(img gocv.Mat, region TemplateRegion) (map[float64]*shape.Info, error) {
	if err := validScaleRange(m.opts.ScaleMin, m.opts.ScaleMax, m.opts.ScaleStep); err != nil {
		return nil, err
	}

	canonical, err := m.prepareTemplate(img, scaleOne)
	if err != nil {
		return nil, err
	}
	canonical.TemplateAnchor = region.Anchor
	canonical.SearchRegion = region.Search

	entry := map[float64]*shape.Info{scaleOne: canonical}
	for _, scale := range m.scaleSweep() {
		info, err := m.prepareTemplate(img, scale)
		if err != nil {
			return nil, err
		}
		entry[scale] = info
	}
	return entry, nil
}

// prepareTemplate builds the representation of a template resampled to the
// given scale.
func (m *Matcher) prepareTemplate(img gocv.Mat, scale float64) (*shape.Info, error) {
	if scale == scaleOne {
		return shape.Build(img, m.builderOptions(true))
	}

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(img, &resized, image.Point{}, scale, scale, gocv.InterpolationLinear)

	return shape.Build(resized, m.builderOptions(true))
}

// scaleSweep returns the non-canonical scales of the configured range. The
// canonical scale is always prepared separately, so values landing on 1.0
// are skipped here.
func (m *Matcher) scaleSweep() []float64 {
	var scales []float64
	for k := 0; ; k++ {
		scale := m.opts.ScaleMin + float64(k)*m.opts.ScaleStep
		if scale > m.opts.ScaleMax+1e-9 {
			break
		}
		if math.Abs(scale-scaleOne) < 1e-3 {
			continue
		}
		scales = append(scales, scale)
	}
	return scales
}

func (m *Matcher) builderOptions(isTemplate bool) shape.Options {
	return shape.Options{
		CannyThreshold:     m.opts.CannyThreshold,
		MinContourPoints:   m.opts.MinContourPoints,
		SimplifyEpsilon:    m.opts.SimplifyEpsilon,
		GridSize:           m.opts.GridSize,
		ComputeDescriptors: isTemplate,
	}
}

func closeImages(images map[int]gocv.Mat) {
	for _, img := range images {
		img.Close()
	}
}
