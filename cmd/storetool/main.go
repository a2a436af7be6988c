// Command storetool builds and inspects binary template stores.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"shape-matcher/internal/config"
	"shape-matcher/internal/imgio"
	"shape-matcher/internal/match"
	"shape-matcher/pkg/geometry"

	"gocv.io/x/gocv"
	"gopkg.in/yaml.v3"
)

func main() {
	buildFlag := flag.String("build", "", "Build a store from comma-separated template image paths")
	inspectFlag := flag.String("inspect", "", "Print the contents of an existing store")
	outPath := flag.String("out", "templates.bin", "Output path for -build")
	regionsPath := flag.String("regions", "", "Optional YAML file with per-template anchor and search rectangles")
	configPath := flag.String("config", "", "Optional YAML configuration file")
	flag.Parse()

	switch {
	case *buildFlag != "":
		if err := buildStore(*buildFlag, *outPath, *regionsPath, *configPath); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
	case *inspectFlag != "":
		if err := inspectStore(*inspectFlag, *configPath); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Println("Usage: storetool -build <path,...> [-out templates.bin] | -inspect <store>")
		os.Exit(1)
	}
}

func matcherFromConfig(configPath string) (*match.Matcher, error) {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	opts, err := cfg.MatcherOptions()
	if err != nil {
		return nil, fmt.Errorf("invalid matcher configuration: %w", err)
	}
	return match.NewMatcher(opts), nil
}

// rectEntry mirrors one rectangle in the regions YAML file.
type rectEntry struct {
	X      int `yaml:"x"`
	Y      int `yaml:"y"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

func (r rectEntry) toRect() geometry.RectInt {
	return geometry.RectInt{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}

// regionEntry is the per-template record in the regions YAML file.
type regionEntry struct {
	Anchor rectEntry `yaml:"anchor"`
	Search rectEntry `yaml:"search"`
}

func loadRegions(path string) (map[int]regionEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read regions file: %w", err)
	}
	entries := make(map[int]regionEntry)
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse regions YAML: %w", err)
	}
	return entries, nil
}

func buildStore(templateList, outPath, regionsPath, configPath string) error {
	matcher, err := matcherFromConfig(configPath)
	if err != nil {
		return err
	}
	defer matcher.Close()

	var fileRegions map[int]regionEntry
	if regionsPath != "" {
		if fileRegions, err = loadRegions(regionsPath); err != nil {
			return err
		}
	}

	images := make(map[int]gocv.Mat)
	regions := make(map[int]match.TemplateRegion)
	defer func() {
		for _, img := range images {
			img.Close()
		}
	}()

	for i, path := range strings.Split(templateList, ",") {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		img, err := imgio.LoadMat(path)
		if err != nil {
			return fmt.Errorf("failed to load template %s: %w", path, err)
		}
		images[i] = img

		if entry, ok := fileRegions[i]; ok {
			regions[i] = match.TemplateRegion{
				Anchor: entry.Anchor.toRect(),
				Search: entry.Search.toRect(),
			}
		} else {
			regions[i] = match.TemplateRegion{
				Anchor: geometry.RectInt{Width: img.Cols(), Height: img.Rows()},
			}
		}
		fmt.Printf("Template %d: %s (%dx%d)\n", i, path, img.Cols(), img.Rows())
	}

	if err := matcher.SetTemplates(images, regions); err != nil {
		return fmt.Errorf("failed to prepare templates: %w", err)
	}
	if err := matcher.Save(outPath); err != nil {
		return fmt.Errorf("failed to save store: %w", err)
	}
	fmt.Printf("Wrote %d templates to %s\n", len(matcher.TemplateIDs()), outPath)
	return nil
}

func inspectStore(storePath, configPath string) error {
	matcher, err := matcherFromConfig(configPath)
	if err != nil {
		return err
	}
	defer matcher.Close()

	if err := matcher.Load(storePath); err != nil {
		return fmt.Errorf("failed to load store: %w", err)
	}

	ids := matcher.TemplateIDs()
	fmt.Printf("Store %s: %d templates\n", storePath, len(ids))
	fmt.Printf("%-10s %8s %s\n", "Template", "Scales", "Prepared scales")
	for _, id := range ids {
		scales := matcher.Scales(id)
		parts := make([]string, len(scales))
		for i, s := range scales {
			parts[i] = fmt.Sprintf("%.1f", s)
		}
		fmt.Printf("%-10d %8d %s\n", id, len(scales), strings.Join(parts, " "))
	}
	return nil
}
