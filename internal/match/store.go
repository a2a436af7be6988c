package match

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"shape-matcher/internal/logger"
	"shape-matcher/internal/shape"
	"shape-matcher/pkg/geometry"

	"gocv.io/x/gocv"
)

// The template store persists only the scale-1.0 image and its two anchor
// rectangles per template; every derived field and every other scale is
// recomputed on load. All integers are little-endian int32, pixel data is
// row-major and channel-interleaved:
//
//	int32 templateCount
//	repeat templateCount times:
//	  int32 id
//	  int32 rows, int32 cols, int32 channels
//	  byte[rows*cols*channels] pixel data
//	  int32 anchorX, anchorY, anchorW, anchorH
//	  int32 roiX, roiY, roiW, roiH

// Save writes the template store to path.
func (m *Matcher) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to open template store for writing: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	ids := m.TemplateIDs()

	if err := binary.Write(w, binary.LittleEndian, int32(len(ids))); err != nil {
		return fmt.Errorf("failed to write template count: %w", err)
	}

	for _, id := range ids {
		img, ok := m.templateImages[id]
		if !ok {
			return fmt.Errorf("no stored image for template %d", id)
		}
		canonical, ok := m.templates[id][scaleOne]
		if !ok {
			return fmt.Errorf("no canonical-scale entry for template %d", id)
		}

		header := []int32{
			int32(id),
			int32(img.Rows()), int32(img.Cols()), int32(img.Channels()),
		}
		for _, v := range header {
			if err := binary.Write(w, binary.LittleEndian, v); err != nil {
				return fmt.Errorf("failed to write template %d header: %w", id, err)
			}
		}

		if _, err := w.Write(img.ToBytes()); err != nil {
			return fmt.Errorf("failed to write template %d pixels: %w", id, err)
		}

		if err := writeRect(w, canonical.TemplateAnchor); err != nil {
			return fmt.Errorf("failed to write template %d anchor: %w", id, err)
		}
		if err := writeRect(w, canonical.SearchRegion); err != nil {
			return fmt.Errorf("failed to write template %d search region: %w", id, err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush template store: %w", err)
	}

	logger.Info("saved %d templates to %s", len(ids), path)
	return nil
}

// Load reads a template store from path, re-runs the builder and the scale
// sweep for every template, and replaces the current collection. On any
// error the existing state is left untouched.
func (m *Matcher) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open template store: %w", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)

	var count int32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return fmt.Errorf("failed to read template count: %w", err)
	}
	if count < 0 {
		return fmt.Errorf("corrupt template store: negative template count %d", count)
	}

	newTemplates := make(map[int]map[float64]*shape.Info, count)
	newImages := make(map[int]gocv.Mat, count)

	for i := int32(0); i < count; i++ {
		id, img, region, err := readTemplate(r)
		if err != nil {
			closeImages(newImages)
			return fmt.Errorf("failed to read template %d of %d: %w", i+1, count, err)
		}

		entry, err := m.prepareScales(img, region)
		if err != nil {
			img.Close()
			closeImages(newImages)
			return fmt.Errorf("failed to prepare loaded template %d: %w", id, err)
		}

		newTemplates[id] = entry
		newImages[id] = img
	}

	closeImages(m.templateImages)
	m.templates = newTemplates
	m.templateImages = newImages

	logger.Info("loaded %d templates from %s", count, path)
	return nil
}

// readTemplate parses one template record.
func readTemplate(r io.Reader) (int, gocv.Mat, TemplateRegion, error) {
	var header [4]int32 // id, rows, cols, channels
	for i := range header {
		if err := binary.Read(r, binary.LittleEndian, &header[i]); err != nil {
			return 0, gocv.Mat{}, TemplateRegion{}, err
		}
	}

	id := int(header[0])
	rows, cols, channels := int(header[1]), int(header[2]), int(header[3])
	if rows <= 0 || cols <= 0 || (channels != 1 && channels != 3) {
		return 0, gocv.Mat{}, TemplateRegion{}, fmt.Errorf("corrupt template record: %dx%d with %d channels", cols, rows, channels)
	}

	data := make([]byte, rows*cols*channels)
	if _, err := io.ReadFull(r, data); err != nil {
		return 0, gocv.Mat{}, TemplateRegion{}, err
	}

	matType := gocv.MatTypeCV8U
	if channels == 3 {
		matType = gocv.MatTypeCV8UC3
	}
	img, err := gocv.NewMatFromBytes(rows, cols, matType, data)
	if err != nil {
		return 0, gocv.Mat{}, TemplateRegion{}, err
	}

	anchor, err := readRect(r)
	if err != nil {
		img.Close()
		return 0, gocv.Mat{}, TemplateRegion{}, err
	}
	search, err := readRect(r)
	if err != nil {
		img.Close()
		return 0, gocv.Mat{}, TemplateRegion{}, err
	}

	return id, img, TemplateRegion{Anchor: anchor, Search: search}, nil
}

func writeRect(w io.Writer, r geometry.RectInt) error {
	for _, v := range []int32{int32(r.X), int32(r.Y), int32(r.Width), int32(r.Height)} {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	return nil
}

func readRect(r io.Reader) (geometry.RectInt, error) {
	var vals [4]int32
	for i := range vals {
		if err := binary.Read(r, binary.LittleEndian, &vals[i]); err != nil {
			return geometry.RectInt{}, err
		}
	}
	return geometry.RectInt{X: int(vals[0]), Y: int(vals[1]), Width: int(vals[2]), Height: int(vals[3])}, nil
}
