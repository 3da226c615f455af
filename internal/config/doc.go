// Package config provides configuration loading and validation for the batch
// transcription pipeline. It handles YAML-based configuration with struct
// validation and supports environment overrides for secrets.
package config
