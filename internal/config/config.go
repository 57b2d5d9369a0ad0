// Package config loads pipeline configuration from the environment.
//
// Every numeric constant the pipeline depends on is a named, overridable
// setting. The defaults were calibrated against the ResNet-style backbone
// and catalog the system originally shipped with; deployments using a
// different backbone should recalibrate DistanceMax and SimilarityThreshold
// against their own embedding distance distribution.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Quality holds the image quality gate thresholds.
type Quality struct {
	BlurMin       float64 // Laplacian variance below this rejects the photo
	ContrastMin   float64 // brightness stddev below this rejects the photo
	BrightnessMin float64 // mean brightness below this marks the photo recoverable
	BrightnessMax float64 // mean brightness above this marks the photo recoverable
}

// Segment holds the segmentation engine tunables.
type Segment struct {
	MinForegroundRatio float64 // alpha masks covering less than this are invalid
	RefineIterations   int     // GrabCut iterations for the refinement attempt
	RefineIoUMin       float64 // refined mask accepted only above this IoU vs the raw mask
	BorderPx           int     // white border around the standardized product
	MaxDimension       int     // standardized image max side length
	ResultCacheSize    int     // bounded LRU of segmentation results by content hash
	BilateralDiameter  int
	BilateralSigma     float64
}

// Color holds the color categorizer tunables.
type Color struct {
	SampleSize      int     // images are downscaled to SampleSize x SampleSize before clustering
	FilterLow       float64 // pixels with mean channel value below this are background-biased
	FilterHigh      float64 // pixels with mean channel value above this are background-biased
	Clusters        int     // k-means k (capped at the surviving pixel count)
	Seed            int64   // k-means initialization seed, fixed for determinism
	ConfidenceFloor float64 // primary category confidence below this falls back to unknown
}

// Feature holds the feature extraction tunables.
type Feature struct {
	EmbeddingLength int // backbone output length; zero vector of this length marks failure
	ResizeTo        int // shortest side after the initial resize
	CropTo          int // center crop side length
}

// Identify holds the identification decision tunables.
type Identify struct {
	DistanceMax         float64 // similarity = max(0, 1 - distance/DistanceMax)
	SimilarityThreshold float64 // matches at or above this are accepted
	SearchK             int     // neighbors requested per color partition
	VisualWeight        float64 // visual share of the combined score when text rerank runs
	TextWeight          float64 // text share of the combined score when text rerank runs
}

// Config is the root configuration for the pipeline.
type Config struct {
	Quality  Quality
	Segment  Segment
	Color    Color
	Feature  Feature
	Identify Identify

	CatalogPath string // SQLite catalog database path
	LogLevel    string // debug, info, warning, error
}

// Default returns the configuration with all defaults applied.
func Default() Config {
	return Config{
		Quality: Quality{
			BlurMin:       45.0,
			ContrastMin:   22.0,
			BrightnessMin: 40.0,
			BrightnessMax: 220.0,
		},
		Segment: Segment{
			MinForegroundRatio: 0.03,
			RefineIterations:   5,
			RefineIoUMin:       0.80,
			BorderPx:           20,
			MaxDimension:       512,
			ResultCacheSize:    128,
			BilateralDiameter:  9,
			BilateralSigma:     75.0,
		},
		Color: Color{
			SampleSize:      150,
			FilterLow:       15.0,
			FilterHigh:      240.0,
			Clusters:        5,
			Seed:            42,
			ConfidenceFloor: 0.3,
		},
		Feature: Feature{
			EmbeddingLength: 2048,
			ResizeTo:        256,
			CropTo:          224,
		},
		Identify: Identify{
			DistanceMax:         150.0,
			SimilarityThreshold: 0.7,
			SearchK:             10,
			VisualWeight:        0.7,
			TextWeight:          0.3,
		},
		CatalogPath: "catalog.db",
		LogLevel:    "info",
	}
}

// Load returns the default configuration with environment overrides applied.
// A .env file in the working directory is honored if present.
func Load() Config {
	_ = godotenv.Load()

	cfg := Default()

	envFloat("PV_QUALITY_BLUR_MIN", &cfg.Quality.BlurMin)
	envFloat("PV_QUALITY_CONTRAST_MIN", &cfg.Quality.ContrastMin)
	envFloat("PV_QUALITY_BRIGHTNESS_MIN", &cfg.Quality.BrightnessMin)
	envFloat("PV_QUALITY_BRIGHTNESS_MAX", &cfg.Quality.BrightnessMax)

	envFloat("PV_SEGMENT_MIN_FG_RATIO", &cfg.Segment.MinForegroundRatio)
	envInt("PV_SEGMENT_REFINE_ITERATIONS", &cfg.Segment.RefineIterations)
	envFloat("PV_SEGMENT_REFINE_IOU_MIN", &cfg.Segment.RefineIoUMin)
	envInt("PV_SEGMENT_BORDER_PX", &cfg.Segment.BorderPx)
	envInt("PV_SEGMENT_MAX_DIMENSION", &cfg.Segment.MaxDimension)
	envInt("PV_SEGMENT_CACHE_SIZE", &cfg.Segment.ResultCacheSize)

	envInt("PV_COLOR_SAMPLE_SIZE", &cfg.Color.SampleSize)
	envInt("PV_COLOR_CLUSTERS", &cfg.Color.Clusters)
	envInt64("PV_COLOR_SEED", &cfg.Color.Seed)
	envFloat("PV_COLOR_CONFIDENCE_FLOOR", &cfg.Color.ConfidenceFloor)

	envInt("PV_FEATURE_EMBEDDING_LENGTH", &cfg.Feature.EmbeddingLength)

	envFloat("PV_IDENTIFY_DISTANCE_MAX", &cfg.Identify.DistanceMax)
	envFloat("PV_IDENTIFY_SIMILARITY_THRESHOLD", &cfg.Identify.SimilarityThreshold)
	envInt("PV_IDENTIFY_SEARCH_K", &cfg.Identify.SearchK)

	envString("PV_CATALOG_PATH", &cfg.CatalogPath)
	envString("PV_LOG_LEVEL", &cfg.LogLevel)

	return cfg
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envFloat(key string, dst *float64) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envInt64(key string, dst *int64) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}
