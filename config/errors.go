// Package config provides error definitions for configuration management
package config

import "errors"

// Configuration validation errors
var (
	ErrInvalidAppName     = errors.New("invalid application name")
	ErrInvalidEnvironment = errors.New("invalid environment")
	ErrInvalidLogLevel    = errors.New("invalid log level")
	ErrInvalidCount       = errors.New("invalid accumulator count")
	ErrInvalidRange       = errors.New("accumulator range overflows int")
	ErrInvalidReportLabel = errors.New("invalid report label")
)

// Configuration loading errors
var (
	ErrConfigFileNotFound  = errors.New("configuration file not found")
	ErrUnsupportedFormat   = errors.New("unsupported configuration format")
	ErrEnvironmentVarError = errors.New("environment variable error")
	ErrWatcherUnavailable  = errors.New("configuration watcher not available")
)
