// Command identify matches a product photo against the catalog.
package main

import (
	"flag"
	"fmt"
	"os"

	"product-vision/internal/catalog"
	"product-vision/internal/config"
	"product-vision/internal/feature"
	"product-vision/internal/identify"
	"product-vision/internal/index"
	"product-vision/internal/logging"
	"product-vision/internal/modelcache"
	"product-vision/internal/segment"
	"product-vision/internal/version"
)

func main() {
	imagePath := flag.String("image", "", "Path to product photo (PNG or JPEG)")
	dbPath := flag.String("db", "", "Path to catalog database (overrides PV_CATALOG_PATH)")
	modelPath := flag.String("model", "", "Path to ONNX backbone model")
	removerPath := flag.String("remover", "", "Path to ONNX matting model (omit to use the CV failsafe only)")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	if *imagePath == "" || *modelPath == "" {
		fmt.Println("Usage: identify -image <path> -model <onnx> [-db <catalog.db>]")
		os.Exit(1)
	}

	cfg := config.Load()
	if *dbPath != "" {
		cfg.CatalogPath = *dbPath
	}
	log := logging.New(cfg.LogLevel)
	defer log.Sync()

	store, err := catalog.Open(cfg.CatalogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open catalog: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	idx := index.New(cfg.Feature.EmbeddingLength, log)
	if err := idx.Rebuild(store); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build index: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Index ready: %d products\n", idx.Size())

	registry := modelcache.New()
	extractor := feature.NewExtractor(cfg.Feature, registry, func() (feature.Backbone, error) {
		return feature.LoadDNNBackbone(*modelPath)
	}, log)
	var remover segment.BackgroundRemover
	if *removerPath != "" {
		dnn, err := segment.LoadDNNRemover(*removerPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load matting model: %v\n", err)
			os.Exit(1)
		}
		defer dnn.Close()
		remover = dnn
	}
	engine := segment.NewEngine(cfg.Segment, remover, log)

	identifier := identify.New(cfg.Identify, engine, extractor, idx, log)

	data, err := os.ReadFile(*imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read image: %v\n", err)
		os.Exit(1)
	}

	match, err := identifier.IdentifyBytes(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Identification failed: %v\n", err)
		os.Exit(1)
	}
	if match == nil {
		fmt.Println("No match found")
		return
	}

	product, err := store.Get(match.ProductID)
	if err != nil {
		fmt.Printf("Match: product %d (similarity %.3f, distance %.1f)\n",
			match.ProductID, match.Similarity, match.Distance)
		return
	}
	fmt.Printf("Match: %s", product.Name)
	if product.Brand != "" {
		fmt.Printf(" (%s)", product.Brand)
	}
	if product.Weight != "" {
		fmt.Printf(" %s", product.Weight)
	}
	fmt.Printf("\n  id=%d similarity=%.3f distance=%.1f color=%s\n",
		product.ID, match.Similarity, match.Distance, product.Color)
}
