package config

import (
	"fmt"

	"github.com/go-ini/ini"
)

// loadINI reads a settings file in the layout the simulator tooling has
// always shipped:
//
//	[PATHS]
//	results_dir = ../results
//	database_file = database.txt
//	database_log_file = database.log
//
// Optional [DISCOVERY], [TABLE], [STORAGE] and [METRICS] sections use the
// same key names as the YAML layout.
func loadINI(path string, cfg *Config) error {
	file, err := ini.Load(path)
	if err != nil {
		return fmt.Errorf("failed to parse INI config: %w", err)
	}

	if file.Section("").HasKey("data_dir") {
		cfg.DataDir = file.Section("").Key("data_dir").String()
	}

	paths := file.Section("PATHS")
	stringKeys(paths, map[string]*string{
		"results_dir":           &cfg.Paths.ResultsDir,
		"database_file":         &cfg.Paths.Database,
		"ignored_database_file": &cfg.Paths.IgnoredDatabase,
		"database_log_file":     &cfg.Paths.ErrorLog,
		"fit_output_dir":        &cfg.Paths.FitOutputDir,
		"manifest_file":         &cfg.Paths.Manifest,
	})

	stringKeys(file.Section("DISCOVERY"), map[string]*string{
		"mode":      &cfg.Discovery.Mode,
		"extension": &cfg.Discovery.Extension,
		"marker":    &cfg.Discovery.Marker,
	})

	table := file.Section("TABLE")
	cfg.Table.ColumnWidth = table.Key("column_width").MustInt(cfg.Table.ColumnWidth)
	cfg.Table.QueryCacheSize = table.Key("query_cache_size").MustInt(cfg.Table.QueryCacheSize)

	storage := file.Section("STORAGE")
	stringKeys(storage, map[string]*string{
		"type":        &cfg.Storage.Type,
		"path":        &cfg.Storage.Path,
		"prefix":      &cfg.Storage.Prefix,
		"s3_bucket":   &cfg.Storage.S3.Bucket,
		"s3_region":   &cfg.Storage.S3.Region,
		"s3_endpoint": &cfg.Storage.S3.Endpoint,
	})
	cfg.Storage.Compress = storage.Key("compress").MustBool(cfg.Storage.Compress)
	cfg.Storage.Concurrency = storage.Key("concurrency").MustInt(cfg.Storage.Concurrency)
	cfg.Storage.S3.UsePathStyle = storage.Key("s3_use_path_style").MustBool(cfg.Storage.S3.UsePathStyle)

	stringKeys(file.Section("METRICS"), map[string]*string{
		"textfile": &cfg.Metrics.Textfile,
	})

	return nil
}

func stringKeys(section *ini.Section, keys map[string]*string) {
	for name, dst := range keys {
		if section.HasKey(name) {
			*dst = section.Key(name).String()
		}
	}
}
