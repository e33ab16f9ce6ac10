// Package config loads dtindex configuration.
//
// Values come from three layers, later layers winning:
//
//  1. Default()
//  2. a YAML file (config.yaml or configs/config.yaml, or DTI_CONFIG_FILE)
//  3. environment variables prefixed with DTI
//
// For example:
//
//	DTI_SERVER_PORT=8080
//	DTI_DATASET_SOURCE=sheets
//	DTI_DATASET_SPREADSHEET_ID=1AbC...
//	DTI_LOGGING_LEVEL=debug
//
// Relative file locations are resolved against the directory of the running
// executable (see GetPaths), never the working directory.
package config
