// Package config provides configuration for the sweeping commands.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wormsim/sweeping/internal/discovery"
)

// Storage types accepted by StorageConfig.Type.
const (
	StorageNone  = "none"
	StorageLocal = "local"
	StorageS3    = "s3"
)

// Config holds every setting the commands read.
type Config struct {
	// DataDir is the base directory derived paths are resolved against
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// Paths locates inputs and outputs
	Paths PathsConfig `json:"paths" yaml:"paths"`

	// Discovery configures the results tree walk
	Discovery DiscoveryConfig `json:"discovery" yaml:"discovery"`

	// Table configures the flat-text database
	Table TableConfig `json:"table" yaml:"table"`

	// Fit configures the parameter fit search
	Fit FitConfig `json:"fit" yaml:"fit"`

	// Storage configures where publish sends artifacts
	Storage StorageConfig `json:"storage" yaml:"storage"`

	// Metrics configures the textfile metrics export
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`
}

// PathsConfig holds file and directory locations.
type PathsConfig struct {
	// ResultsDir is the root of the simulator results tree
	ResultsDir string `json:"results_dir" yaml:"results_dir"`

	// Database is the table of complete runs
	Database string `json:"database_file" yaml:"database_file"`

	// IgnoredDatabase receives the records sanitization removed
	IgnoredDatabase string `json:"ignored_database_file" yaml:"ignored_database_file"`

	// ErrorLog receives one line per skipped file
	ErrorLog string `json:"database_log_file" yaml:"database_log_file"`

	// FitOutputDir receives one file per accepted fit candidate
	FitOutputDir string `json:"fit_output_dir" yaml:"fit_output_dir"`

	// Manifest is the SQLite run ledger
	Manifest string `json:"manifest_file" yaml:"manifest_file"`
}

// DiscoveryConfig holds the data file naming conventions.
type DiscoveryConfig struct {
	// Mode is strict or lenient
	Mode string `json:"mode" yaml:"mode"`

	// Extension is the data file suffix
	Extension string `json:"extension" yaml:"extension"`

	// Marker must appear in data file names
	Marker string `json:"marker" yaml:"marker"`
}

// TableConfig holds table layout settings.
type TableConfig struct {
	// ColumnWidth is the padded width of every column (minimum 9)
	ColumnWidth int `json:"column_width" yaml:"column_width"`

	// QueryCacheSize bounds memoized query results during a fit search
	QueryCacheSize int `json:"query_cache_size" yaml:"query_cache_size"`
}

// FitConfig holds the reference data the fit search scores against.
type FitConfig struct {
	// Molarities are the concentrations compared against the reference tables
	Molarities []int `json:"molarities" yaml:"molarities"`

	// UniReference maps molarity to the observed percentage for single-odour runs
	UniReference map[int]float64 `json:"uni_reference" yaml:"uni_reference"`

	// MultiReference maps molarity to the observed percentage for mixed-odour runs
	MultiReference map[int]float64 `json:"multi_reference" yaml:"multi_reference"`

	// MaxFR is the largest FR the highest molarity may reach
	MaxFR int `json:"max_fr" yaml:"max_fr"`
}

// StorageConfig holds publish destination settings.
type StorageConfig struct {
	// Type is none, local or s3
	Type string `json:"type" yaml:"type"`

	// Path is the local storage path (for local type)
	Path string `json:"path" yaml:"path"`

	// Prefix is prepended to every object path
	Prefix string `json:"prefix" yaml:"prefix"`

	// Compress snappy-compresses artifacts before upload
	Compress bool `json:"compress" yaml:"compress"`

	// Concurrency is the number of parallel uploads
	Concurrency int `json:"concurrency" yaml:"concurrency"`

	// S3 configuration (for s3 type)
	S3 S3Config `json:"s3" yaml:"s3"`
}

// S3Config holds S3 storage configuration.
type S3Config struct {
	// Bucket is the S3 bucket name
	Bucket string `json:"bucket" yaml:"bucket"`

	// Region is the AWS region
	Region string `json:"region" yaml:"region"`

	// Endpoint is the S3 endpoint (for S3-compatible storage)
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// UsePathStyle enables path-style addressing
	UsePathStyle bool `json:"use_path_style" yaml:"use_path_style"`
}

// MetricsConfig holds the metrics export settings.
type MetricsConfig struct {
	// Textfile is written after every command when set
	Textfile string `json:"textfile" yaml:"textfile"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		DataDir: ".",
		Discovery: DiscoveryConfig{
			Mode:      string(discovery.NoRootCheck),
			Extension: ".csv",
			Marker:    "exit_time_raw_output",
		},
		Table: TableConfig{
			ColumnWidth:    10,
			QueryCacheSize: 1024,
		},
		Fit: FitConfig{
			Molarities:     []int{2, 3, 4},
			UniReference:   map[int]float64{2: 35, 3: 7, 4: 0},
			MultiReference: map[int]float64{2: 80, 3: 50, 4: 0},
			MaxFR:          100,
		},
		Storage: StorageConfig{
			Type:        StorageNone,
			Concurrency: 4,
		},
	}
}

// Resolve fills unset paths from DataDir.
func (c *Config) Resolve() {
	if c.DataDir == "" {
		c.DataDir = "."
	}

	defaults := []struct {
		field *string
		name  string
	}{
		{&c.Paths.ResultsDir, "results"},
		{&c.Paths.Database, "database.txt"},
		{&c.Paths.IgnoredDatabase, "ignored_database.txt"},
		{&c.Paths.ErrorLog, "database_errors.log"},
		{&c.Paths.FitOutputDir, "fits"},
		{&c.Paths.Manifest, "manifest.db"},
	}
	for _, d := range defaults {
		if *d.field == "" {
			*d.field = filepath.Join(c.DataDir, d.name)
		}
	}

	if c.Storage.Type == "" {
		c.Storage.Type = StorageNone
	}
	if c.Storage.Type == StorageLocal && c.Storage.Path == "" {
		c.Storage.Path = filepath.Join(c.DataDir, "published")
	}
}

// DiscoveryOptions converts the discovery section. Call Validate first.
func (c *Config) DiscoveryOptions() discovery.Options {
	policy, _ := discovery.ParsePolicy(c.Discovery.Mode)
	return discovery.Options{
		Policy:    policy,
		Extension: c.Discovery.Extension,
		Marker:    c.Discovery.Marker,
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	if _, err := discovery.ParsePolicy(c.Discovery.Mode); err != nil {
		return err
	}
	if c.Discovery.Extension == "" {
		return fmt.Errorf("discovery.extension is required")
	}

	if c.Table.ColumnWidth < 9 {
		return fmt.Errorf("table.column_width must be at least 9, got %d", c.Table.ColumnWidth)
	}

	if len(c.Fit.Molarities) == 0 {
		return fmt.Errorf("fit.molarities must not be empty")
	}
	for _, m := range c.Fit.Molarities {
		if m < 1 {
			return fmt.Errorf("fit.molarities must be positive, got %d", m)
		}
		if _, ok := c.Fit.UniReference[m]; !ok {
			return fmt.Errorf("fit.uni_reference has no value for molarity %d", m)
		}
		if _, ok := c.Fit.MultiReference[m]; !ok {
			return fmt.Errorf("fit.multi_reference has no value for molarity %d", m)
		}
	}
	if c.Fit.MaxFR <= 0 {
		return fmt.Errorf("fit.max_fr must be positive, got %d", c.Fit.MaxFR)
	}

	switch c.Storage.Type {
	case StorageNone, StorageLocal, StorageS3:
	default:
		return fmt.Errorf("invalid storage type: %s (must be none, local or s3)", c.Storage.Type)
	}
	if c.Storage.Type == StorageS3 && c.Storage.S3.Bucket == "" {
		return fmt.Errorf("s3.bucket is required when storage type is s3")
	}

	return nil
}

// LoadFromFile loads configuration from a YAML, JSON or INI file. Unset
// values keep their defaults.
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".ini" {
		if err := loadINI(path, cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}

	return cfg, nil
}

// LoadOption adjusts Load.
type LoadOption func(*loadSettings)

type loadSettings struct {
	envFiles []string
	dataDir  string
}

// WithEnvFiles names the .env files to load instead of ".env".
func WithEnvFiles(files ...string) LoadOption {
	return func(s *loadSettings) {
		s.envFiles = files
	}
}

// WithDataDir overrides data_dir after the file and environment are applied.
// An empty dir leaves it unchanged.
func WithDataDir(dir string) LoadOption {
	return func(s *loadSettings) {
		s.dataDir = dir
	}
}

// Load builds the effective configuration: defaults or path, then .env
// files, then SWEEPING_ environment variables, then options. The result is
// resolved and validated.
func Load(path string, opts ...LoadOption) (*Config, error) {
	var settings loadSettings
	for _, opt := range opts {
		opt(&settings)
	}

	cfg := DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = LoadFromFile(path); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := LoadDotEnv(settings.envFiles...); err != nil {
		return nil, err
	}
	if err := LoadFromEnv(cfg); err != nil {
		return nil, err
	}
	if settings.dataDir != "" {
		cfg.DataDir = settings.dataDir
	}

	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// EnsureDirectories creates every output directory.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.DataDir,
		filepath.Dir(c.Paths.Database),
		filepath.Dir(c.Paths.IgnoredDatabase),
		filepath.Dir(c.Paths.ErrorLog),
		filepath.Dir(c.Paths.Manifest),
		c.Paths.FitOutputDir,
	}
	if c.Storage.Type == StorageLocal {
		dirs = append(dirs, c.Storage.Path)
	}
	if c.Metrics.Textfile != "" {
		dirs = append(dirs, filepath.Dir(c.Metrics.Textfile))
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
