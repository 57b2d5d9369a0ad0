// Command indexstats reports catalog and similarity-index statistics.
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"product-vision/internal/catalog"
	"product-vision/internal/config"
	"product-vision/internal/index"
	"product-vision/internal/logging"
	"product-vision/pkg/colorutil"
)

func main() {
	dbPath := flag.String("db", "", "Path to catalog database (overrides PV_CATALOG_PATH)")
	flag.Parse()

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

	counts, err := store.Count()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read catalog: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Catalog:")
	for _, status := range []string{catalog.StatusPending, catalog.StatusProcessed, catalog.StatusFailed} {
		fmt.Printf("  %-10s %d\n", status, counts[status])
	}

	idx := index.New(cfg.Feature.EmbeddingLength, log)
	if err := idx.Rebuild(store); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build index: %v\n", err)
		os.Exit(1)
	}

	sizes := idx.PartitionSizes()
	cats := make([]string, 0, len(sizes))
	for cat := range sizes {
		cats = append(cats, string(cat))
	}
	sort.Strings(cats)

	fmt.Printf("\nIndex: %d embeddings in %d partitions\n", idx.Size(), len(sizes))
	for _, cat := range cats {
		fmt.Printf("  %-10s %d\n", cat, sizes[colorutil.Category(cat)])
	}
}
