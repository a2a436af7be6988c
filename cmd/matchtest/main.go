// Command matchtest runs shape matching of one or more template images
// against a query image and prints the detections.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"shape-matcher/internal/config"
	"shape-matcher/internal/imgio"
	"shape-matcher/internal/logger"
	"shape-matcher/internal/match"
	"shape-matcher/pkg/geometry"

	"gocv.io/x/gocv"
)

func main() {
	templates := flag.String("templates", "", "Comma-separated template image paths (TIFF, PNG, or JPEG)")
	queryPath := flag.String("query", "", "Path to query image")
	configPath := flag.String("config", "", "Optional YAML configuration file")
	storePath := flag.String("store", "", "Load templates from a template store instead of -templates")
	multiScale := flag.Bool("multiscale", false, "Search every configured scale instead of scale 1.0 only")
	threshold := flag.Float64("threshold", 0, "Override the detection cost threshold (0 keeps the configured value)")
	verbose := flag.Bool("v", false, "Enable debug logging")
	flag.Parse()

	if *queryPath == "" || (*templates == "" && *storePath == "") {
		fmt.Println("Usage: matchtest -query <path> (-templates <path,...> | -store <path>) [-config <path>] [-multiscale]")
		os.Exit(1)
	}
	if *verbose {
		logger.Default().SetLevel(logger.DEBUG)
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	matcherOpts, err := cfg.MatcherOptions()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid matcher configuration: %v\n", err)
		os.Exit(1)
	}
	detectOpts, err := cfg.DetectOptions()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid detect configuration: %v\n", err)
		os.Exit(1)
	}
	if *threshold > 0 {
		detectOpts.DistanceThreshold = *threshold
	}

	matcher := match.NewMatcher(matcherOpts)
	defer matcher.Close()

	if *storePath != "" {
		if err := matcher.Load(*storePath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load template store: %v\n", err)
			os.Exit(1)
		}
	} else {
		if err := loadTemplates(matcher, strings.Split(*templates, ",")); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
	}

	query, err := imgio.LoadMat(*queryPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load query image: %v\n", err)
		os.Exit(1)
	}
	defer query.Close()

	fmt.Printf("Loaded query image: %dx%d pixels\n", query.Cols(), query.Rows())
	fmt.Printf("Templates: %v\n", matcher.TemplateIDs())
	fmt.Printf("Matching: %s  threshold: %.1f  multi-scale: %v\n\n",
		detectOpts.Matching, detectOpts.DistanceThreshold, *multiScale)

	var detections []match.Detection
	if *multiScale {
		detections, err = matcher.DetectMultiScale(query, detectOpts)
	} else {
		detections, err = matcher.Detect(query, detectOpts)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Detection failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Detected %d matches:\n", len(detections))
	fmt.Printf("%-10s %6s %6s %6s %6s %8s %8s\n",
		"Template", "X", "Y", "W", "H", "Cost", "Scale")
	for _, d := range detections {
		fmt.Printf("%-10d %6d %6d %6d %6d %8.2f %8.2f\n",
			d.TemplateID, d.Bounds.X, d.Bounds.Y, d.Bounds.Width, d.Bounds.Height, d.Cost, d.Scale)
	}
}

// loadTemplates reads the template images and registers them with
// sequential ids. Each template searches the whole query image.
func loadTemplates(matcher *match.Matcher, paths []string) error {
	images := make(map[int]gocv.Mat, len(paths))
	regions := make(map[int]match.TemplateRegion, len(paths))
	defer func() {
		for _, img := range images {
			img.Close()
		}
	}()

	for i, path := range paths {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		img, err := imgio.LoadMat(path)
		if err != nil {
			return fmt.Errorf("failed to load template %s: %w", path, err)
		}
		images[i] = img
		regions[i] = match.TemplateRegion{
			Anchor: geometry.RectInt{Width: img.Cols(), Height: img.Rows()},
		}
	}

	if err := matcher.SetTemplates(images, regions); err != nil {
		return fmt.Errorf("failed to set templates: %w", err)
	}
	return nil
}
