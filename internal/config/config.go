// Package config reads runtime configuration from environment variables,
// optionally seeded from a .env file.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"dwcarchive/internal/eml"
)

const (
	defaultServer         = "https://rowlrs-data.marine.rutgers.edu/erddap"
	defaultTowsDataset    = "bottom_trawl_survey_ow1_tows"
	defaultCatchDataset   = "bottom_trawl_survey_ow1_catch"
	defaultSpeciesDataset = "species_id_codes"
	defaultTowsSource     = "ow1_tows"
	defaultCatchSource    = "ow1_catch"
	defaultSpeciesSource  = "species_id_codes"
	defaultRequestTimeout = 60 * time.Second
)

// Config holds runtime configuration for the archive builder.
type Config struct {
	// ERDDAPServer is the base URL of the ERDDAP instance.
	ERDDAPServer string
	// Dataset identifiers on the server.
	TowsDataset    string
	CatchDataset   string
	SpeciesDataset string
	// Source names matched against the table part of exact mappings.
	TowsSource    string
	CatchSource   string
	SpeciesSource string
	// SchemaPath points at the mapping schema document; empty disables
	// schema-driven mapping.
	SchemaPath string
	// MetadataPath points at a key=value file feeding the EML document.
	MetadataPath string
	// CachePath is the SQLite dataset cache; empty disables caching.
	CachePath string
	// Run log backend: memory, sqlite or postgres.
	RunlogDriver string
	RunlogDSN    string
	// RequestTimeout bounds each ERDDAP request.
	RequestTimeout time.Duration
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// Load reads configuration from environment variables (optionally .env).
func Load() (Config, error) {
	_ = godotenv.Load(".env")

	cfg := Config{
		ERDDAPServer:   getenv("DWCA_ERDDAP_SERVER", defaultServer),
		TowsDataset:    getenv("DWCA_DATASET_TOWS", defaultTowsDataset),
		CatchDataset:   getenv("DWCA_DATASET_CATCH", defaultCatchDataset),
		SpeciesDataset: getenv("DWCA_DATASET_SPECIES", defaultSpeciesDataset),
		TowsSource:     getenv("DWCA_SOURCE_TOWS", defaultTowsSource),
		CatchSource:    getenv("DWCA_SOURCE_CATCH", defaultCatchSource),
		SpeciesSource:  getenv("DWCA_SOURCE_SPECIES", defaultSpeciesSource),
		SchemaPath:     strings.TrimSpace(os.Getenv("DWCA_SCHEMA_PATH")),
		MetadataPath:   strings.TrimSpace(os.Getenv("DWCA_METADATA_PATH")),
		CachePath:      strings.TrimSpace(os.Getenv("DWCA_CACHE_PATH")),
		RunlogDriver:   getenv("DWCA_RUNLOG_DRIVER", "memory"),
		RunlogDSN:      strings.TrimSpace(os.Getenv("DWCA_RUNLOG_DSN")),
		RequestTimeout: defaultRequestTimeout,
	}

	if v := strings.TrimSpace(os.Getenv("DWCA_REQUEST_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid DWCA_REQUEST_TIMEOUT: %w", err)
		}
		cfg.RequestTimeout = d
	}
	return cfg, nil
}

// Metadata loads the EML metadata bag from MetadataPath. An empty path
// yields an empty bag.
func (c Config) Metadata() (eml.Metadata, error) {
	if c.MetadataPath == "" {
		return eml.Metadata{}, nil
	}
	values, err := godotenv.Read(c.MetadataPath)
	if err != nil {
		return nil, fmt.Errorf("read metadata file: %w", err)
	}
	meta := make(eml.Metadata, len(values))
	for k, v := range values {
		meta[strings.ToLower(k)] = v
	}
	return meta, nil
}
