// Command labelscan OCRs a packaging photo and extracts label fields.
package main

import (
	"flag"
	"fmt"
	"os"

	"product-vision/internal/imaging"
	"product-vision/internal/ocr"
	"product-vision/internal/textparse"
)

func main() {
	imagePath := flag.String("image", "", "Path to packaging photo (PNG or JPEG)")
	showRaw := flag.Bool("raw", false, "Also print the raw OCR text")
	flag.Parse()

	if *imagePath == "" {
		fmt.Println("Usage: labelscan -image <path> [-raw]")
		os.Exit(1)
	}

	img, err := imaging.LoadFile(*imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load image: %v\n", err)
		os.Exit(1)
	}
	defer img.Close()

	engine, err := ocr.NewEngine()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start OCR: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	text, err := engine.ReadLabel(img)
	if err != nil {
		fmt.Fprintf(os.Stderr, "OCR failed: %v\n", err)
		os.Exit(1)
	}
	if *showRaw {
		fmt.Printf("--- raw OCR ---\n%s\n---------------\n", text)
	}

	label := textparse.NewParser().Parse(text)
	fmt.Printf("Brand:  %s\n", orDash(label.Brand))
	fmt.Printf("Weight: %s\n", orDash(label.Weight))
	fmt.Printf("Name:   %s\n", orDash(label.Name))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
