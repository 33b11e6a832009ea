// Package config provides centralized configuration management for the
// labourpulse services. It handles loading configuration from multiple
// sources, validation, and path resolution.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. configs/config.yaml
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern LP_* for namespacing:
//
//	LP_SERVER_PORT=8080
//	LP_DATA_SOURCE_FILE=data/unemployment_in_india.csv
//	LP_DATA_REPORTS_DIR=reports
//	LP_LOGGING_LEVEL=info
//
// # Path Management
//
// Relative paths in the configuration are resolved against a single
// base directory, normally the executable's directory:
//
//	paths, err := config.GetPaths()
//	source := paths.Resolve(cfg.Data.SourceFile)
//
// # Usage
//
// Load configuration at application startup:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
