// Command colortest runs color categorization on an image and prints the
// resulting profile.
package main

import (
	"flag"
	"fmt"
	"os"

	"product-vision/internal/colorcat"
	"product-vision/internal/config"
	"product-vision/internal/imaging"
	"product-vision/internal/logging"
	"product-vision/internal/segment"
)

func main() {
	imagePath := flag.String("image", "", "Path to product photo (PNG or JPEG)")
	rawInput := flag.Bool("raw", false, "Categorize the raw image without segmentation")
	flag.Parse()

	if *imagePath == "" {
		fmt.Println("Usage: colortest -image <path> [-raw]")
		os.Exit(1)
	}

	cfg := config.Load()
	log := logging.New(cfg.LogLevel)
	defer log.Sync()

	img, err := imaging.LoadFile(*imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load image: %v\n", err)
		os.Exit(1)
	}
	defer img.Close()

	target := img
	if !*rawInput {
		engine := segment.NewEngine(cfg.Segment, nil, log)
		seg, err := engine.ProcessMat(img)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Segmentation failed: %v\n", err)
			os.Exit(1)
		}
		defer seg.Close()
		target = seg.Standardized
		fmt.Printf("Mask provenance: %s\n", seg.Provenance)
	}

	profile, err := colorcat.New(cfg.Color).Categorize(target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Categorization failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Primary:    %s\n", profile.Primary)
	if profile.Secondary != "" {
		fmt.Printf("Secondary:  %s\n", profile.Secondary)
	}
	fmt.Printf("Confidence: %.2f\n", profile.Confidence)
	fmt.Println("Dominant colors:")
	for i, rgb := range profile.Dominant {
		fmt.Printf("  %d. #%02X%02X%02X\n", i+1, rgb[0], rgb[1], rgb[2])
	}
}
