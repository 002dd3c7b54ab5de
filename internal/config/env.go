package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// EnvPrefix starts every environment override.
const EnvPrefix = "SWEEPING_"

// LoadDotEnv loads variables from files that exist, defaulting to ".env".
// Variables already set in the environment win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("failed to load env files: %w", err)
	}
	return nil
}

// LoadFromEnv applies SWEEPING_* environment variables to cfg.
func LoadFromEnv(cfg *Config) error {
	strs := map[string]*string{
		"DATA_DIR":              &cfg.DataDir,
		"RESULTS_DIR":           &cfg.Paths.ResultsDir,
		"DATABASE_FILE":         &cfg.Paths.Database,
		"IGNORED_DATABASE_FILE": &cfg.Paths.IgnoredDatabase,
		"DATABASE_LOG_FILE":     &cfg.Paths.ErrorLog,
		"FIT_OUTPUT_DIR":        &cfg.Paths.FitOutputDir,
		"MANIFEST_FILE":         &cfg.Paths.Manifest,
		"DISCOVERY_MODE":        &cfg.Discovery.Mode,
		"STORAGE_TYPE":          &cfg.Storage.Type,
		"STORAGE_PATH":          &cfg.Storage.Path,
		"STORAGE_PREFIX":        &cfg.Storage.Prefix,
		"S3_BUCKET":             &cfg.Storage.S3.Bucket,
		"S3_REGION":             &cfg.Storage.S3.Region,
		"S3_ENDPOINT":           &cfg.Storage.S3.Endpoint,
		"METRICS_TEXTFILE":      &cfg.Metrics.Textfile,
	}
	for name, dst := range strs {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"TABLE_COLUMN_WIDTH":     &cfg.Table.ColumnWidth,
		"TABLE_QUERY_CACHE_SIZE": &cfg.Table.QueryCacheSize,
		"FIT_MAX_FR":             &cfg.Fit.MaxFR,
		"STORAGE_CONCURRENCY":    &cfg.Storage.Concurrency,
	}
	for name, dst := range ints {
		v := os.Getenv(EnvPrefix + name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = n
	}

	bools := map[string]*bool{
		"STORAGE_COMPRESS":  &cfg.Storage.Compress,
		"S3_USE_PATH_STYLE": &cfg.Storage.S3.UsePathStyle,
	}
	for name, dst := range bools {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			*dst = v == "true" || v == "1"
		}
	}

	if v := os.Getenv(EnvPrefix + "FIT_MOLARITIES"); v != "" {
		var molarities []int
		for _, part := range strings.Split(v, ",") {
			m, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return fmt.Errorf("%sFIT_MOLARITIES: %w", EnvPrefix, err)
			}
			molarities = append(molarities, m)
		}
		cfg.Fit.Molarities = molarities
	}

	return nil
}
